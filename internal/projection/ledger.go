package projection

import (
	"context"
	"fmt"

	"contabile/internal/eventstore"
	"contabile/internal/ledger"
	"contabile/internal/readmodel"
)

// LedgerProjection keeps the ledger month view in sync. Transaction
// appends use set semantics keyed by transaction id, so replays never
// duplicate rows or double-count the balance.
type LedgerProjection struct {
	store readmodel.LedgerStore
}

func NewLedgerProjection(store readmodel.LedgerStore) *LedgerProjection {
	return &LedgerProjection{store: store}
}

func (p *LedgerProjection) HandleEvent(ctx context.Context, ev eventstore.Event) error {
	switch e := ev.Data.(type) {
	case *ledger.MonthBalanceOpened:
		err := p.store.UpsertLedgerMonth(ctx, readmodel.LedgerMonth{
			LedgerID:     e.LedgerID,
			AccountID:    e.LedgerID.AccountID,
			Month:        e.LedgerID.Month,
			Year:         e.LedgerID.Year,
			StartBalance: e.Balance,
			Balance:      e.Balance,
		})
		if err != nil {
			return fmt.Errorf("project month open: %w", err)
		}
		return nil

	case *ledger.TransactionRegistered:
		_, err := p.store.AppendTransaction(ctx, e.LedgerID, readmodel.Transaction{
			TransactionID:   e.TransactionID,
			MovementTypeID:  e.MovementTypeID,
			Action:          e.Action,
			Amount:          e.Amount,
			Date:            e.Date,
			SourceAccountID: e.SourceAccountID,
			Description:     e.Description,
			Notes:           e.Notes,
			TagIDs:          e.TagIDs,
		})
		if err != nil {
			return fmt.Errorf("project transaction: %w", err)
		}
		return nil

	case *ledger.MonthBalanceClosed:
		if err := p.store.CloseLedgerMonth(ctx, e.LedgerID, e.Balance); err != nil {
			return fmt.Errorf("project month close: %w", err)
		}
		return nil

	default:
		return nil
	}
}
