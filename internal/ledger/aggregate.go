package ledger

import (
	"fmt"

	"contabile/internal/commandbus"
	"contabile/internal/core"
	"contabile/internal/eventstore"
)

// State is the folded ledger month. The zero value is the pre-open
// state. Balance always equals the opening balance plus the signed sum
// of every registered amount.
type State struct {
	Opened       bool
	Closed       bool
	StartBalance core.Money
	Balance      core.Money
}

// Apply folds one event into the state. Amounts were currency-checked
// before the event was emitted, so the fold adds raw cents and stays
// error-free.
func Apply(s State, ev eventstore.EventData) State {
	switch e := ev.(type) {
	case *MonthBalanceOpened:
		s.Opened = true
		s.StartBalance = e.Balance
		s.Balance = e.Balance
	case *TransactionRegistered:
		s.Balance.Cents += e.Amount.Cents
	case *MonthBalanceClosed:
		s.Closed = true
		s.Balance = e.Balance
	}
	return s
}

// Handle validates a command against the folded state and returns the
// events to emit.
func Handle(s State, cmd Command) ([]eventstore.EventData, error) {
	switch c := cmd.(type) {
	case OpenBalanceForMonth:
		if s.Opened {
			return nil, ErrAlreadyOpened
		}
		return []eventstore.EventData{&MonthBalanceOpened{
			LedgerID: c.LedgerID,
			Balance:  c.Balance,
		}}, nil

	case RegisterTransaction:
		if !s.Opened {
			return nil, ErrNotOpened
		}
		if s.Closed {
			return nil, ErrLedgerClosed
		}
		if c.Amount.Currency != s.Balance.Currency {
			return nil, fmt.Errorf("register transaction %s: %w: %s and %s",
				c.TransactionID, core.ErrCurrencyMismatch, s.Balance.Currency, c.Amount.Currency)
		}
		return []eventstore.EventData{&TransactionRegistered{
			LedgerID:        c.LedgerID,
			TransactionID:   c.TransactionID,
			MovementTypeID:  c.MovementTypeID,
			Action:          core.ActionForAmount(c.Amount),
			Amount:          c.Amount,
			Date:            c.Date,
			SourceAccountID: c.SourceAccountID,
			Description:     c.Description,
			Notes:           c.Notes,
			TagIDs:          c.TagIDs,
		}}, nil

	case CloseBalanceForMonth:
		if !s.Opened {
			return nil, ErrNotOpened
		}
		if s.Closed {
			return nil, ErrLedgerClosed
		}
		if c.Balance != s.Balance {
			return nil, &CloseBalanceMismatchError{
				LedgerID: c.LedgerID,
				Computed: s.Balance,
				Declared: c.Balance,
			}
		}
		return []eventstore.EventData{&MonthBalanceClosed{
			LedgerID: c.LedgerID,
			Balance:  c.Balance,
		}}, nil

	default:
		return nil, fmt.Errorf("ledger: no handler for command %q", cmd.CommandType())
	}
}

// Definition wires the ledger aggregate into the command bus.
func Definition() commandbus.AggregateDefinition {
	return commandbus.AggregateDefinition{
		Type:     AggregateType,
		NewState: func() any { return State{} },
		Apply: func(state any, ev eventstore.EventData) any {
			return Apply(state.(State), ev)
		},
		Handle: func(state any, cmd commandbus.Command) ([]eventstore.EventData, error) {
			c, ok := cmd.(Command)
			if !ok {
				return nil, fmt.Errorf("ledger: unexpected command type %T", cmd)
			}
			return Handle(state.(State), c)
		},
	}
}
