// Package projection holds the read-model projections, one per
// aggregate kind, and the manager that restarts their processing
// groups. Every handler tolerates at-least-once delivery.
package projection

import (
	"context"
	"fmt"

	"contabile/internal/account"
	"contabile/internal/core"
	"contabile/internal/eventstore"
	"contabile/internal/readmodel"
)

// Processing group names, one per projection.
const (
	AccountGroup      = "account-projection"
	LedgerGroup       = "ledger-projection"
	MovementTypeGroup = "movement-type-projection"
	TagCategoryGroup  = "tag-category-projection"
)

// AccountProjection keeps the account view in sync.
type AccountProjection struct {
	store readmodel.AccountStore
}

func NewAccountProjection(store readmodel.AccountStore) *AccountProjection {
	return &AccountProjection{store: store}
}

func (p *AccountProjection) HandleEvent(ctx context.Context, ev eventstore.Event) error {
	switch e := ev.Data.(type) {
	case *account.NewAccountRegistered:
		err := p.store.UpsertAccount(ctx, readmodel.Account{
			AccountID:           e.AccountID,
			BankName:            e.BankName,
			Name:                e.Name,
			AccountType:         e.AccountType,
			StartingBalance:     e.StartingBalance,
			StartingBalanceDate: e.StartingBalanceDate,
			Notes:               e.Notes,
			ActiveMonth:         e.ActiveMonth,
		})
		if err != nil {
			return fmt.Errorf("project account registration: %w", err)
		}
		return nil

	case *account.NextMonthStarted:
		month := core.MonthYear{Month: e.Month, Year: e.Year}
		updated, err := p.store.UpdateActiveMonth(ctx, e.AccountID, month)
		if err != nil {
			return fmt.Errorf("project month advance: %w", err)
		}
		if !updated {
			return &ActiveMonthUpdateFailureError{AccountID: e.AccountID, Month: month}
		}
		return nil

	default:
		return nil
	}
}
