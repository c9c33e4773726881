package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"contabile/internal/core"
	"contabile/internal/eventstore"
	"contabile/internal/ledger"
	"contabile/internal/log"
)

func testLogger() *log.Logger {
	return log.NewWithHandler(slog.NewTextHandler(io.Discard, nil))
}

type fakeAppender struct {
	rows [][]any
	fail error
}

func (f *fakeAppender) AppendRow(_ context.Context, values []any) error {
	if f.fail != nil {
		return f.fail
	}
	f.rows = append(f.rows, values)
	return nil
}

func TestExporter_MonthClose(t *testing.T) {
	appender := &fakeAppender{}
	exporter := NewExporter(appender, testLogger())

	accountID := core.NewAccountID()
	ledgerID := core.NewLedgerID(accountID, time.January, 2024)
	err := exporter.HandleEvent(context.Background(), eventstore.Event{
		Type: ledger.MonthBalanceClosedEvent,
		Data: &ledger.MonthBalanceClosed{
			LedgerID: ledgerID,
			Balance:  core.NewMoney(12050, core.EUR),
		},
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}

	if len(appender.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(appender.rows))
	}
	row := appender.rows[0]
	if row[0] != accountID.String() || row[1] != "2024-01" || row[2] != "120.50 EUR" {
		t.Fatalf("row = %v", row)
	}
}

func TestExporter_IgnoresOtherEvents(t *testing.T) {
	appender := &fakeAppender{}
	exporter := NewExporter(appender, testLogger())

	err := exporter.HandleEvent(context.Background(), eventstore.Event{
		Type: ledger.TransactionRegisteredEvent,
		Data: &ledger.TransactionRegistered{TransactionID: core.NewTransactionID()},
	})
	if err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(appender.rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(appender.rows))
	}
}

func TestExporter_AppendFailureSurfaces(t *testing.T) {
	failure := errors.New("sheet unavailable")
	exporter := NewExporter(&fakeAppender{fail: failure}, testLogger())

	err := exporter.HandleEvent(context.Background(), eventstore.Event{
		Type: ledger.MonthBalanceClosedEvent,
		Data: &ledger.MonthBalanceClosed{
			LedgerID: core.NewLedgerID(core.NewAccountID(), time.March, 2024),
			Balance:  core.NewMoney(100, core.EUR),
		},
	})
	if !errors.Is(err, failure) {
		t.Fatalf("expected append failure, got %v", err)
	}
}
