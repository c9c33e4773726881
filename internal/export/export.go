// Package export mirrors closed ledger months into a Google Sheet, one
// row per close. The exporter is a tracking consumer like every
// projection, but its group is not replayable: rewinding it would
// duplicate rows in the spreadsheet.
package export

import (
	"context"
	"fmt"

	"contabile/internal/eventstore"
	"contabile/internal/ledger"
	"contabile/internal/log"
)

// GroupName is the processing group the exporter consumes under.
const GroupName = "sheet-export"

// RowAppender appends one row to the export target.
type RowAppender interface {
	AppendRow(ctx context.Context, values []any) error
}

// Exporter writes a summary row for every MonthBalanceClosed event.
type Exporter struct {
	rows   RowAppender
	logger *log.Logger
}

func NewExporter(rows RowAppender, logger *log.Logger) *Exporter {
	return &Exporter{
		rows:   rows,
		logger: logger.WithComponent(log.ComponentExport),
	}
}

func (e *Exporter) HandleEvent(ctx context.Context, ev eventstore.Event) error {
	closed, ok := ev.Data.(*ledger.MonthBalanceClosed)
	if !ok {
		return nil
	}

	row := []any{
		closed.LedgerID.AccountID.String(),
		closed.LedgerID.MonthYear().String(),
		closed.Balance.String(),
	}
	if err := e.rows.AppendRow(ctx, row); err != nil {
		return fmt.Errorf("export month close for %s: %w", closed.LedgerID, err)
	}

	e.logger.Info("Exported month close",
		log.FieldAggregateID, closed.LedgerID.AccountID,
		"month", closed.LedgerID.MonthYear().String(),
		"balance", closed.Balance.String())
	return nil
}
