package account

import (
	"errors"
	"fmt"

	"contabile/internal/commandbus"
	"contabile/internal/core"
	"contabile/internal/eventstore"
)

var (
	ErrAlreadyRegistered = errors.New("account: already registered")
	ErrNotRegistered     = errors.New("account: not registered")
)

// State is the folded account state. The zero value is the
// pre-creation state.
type State struct {
	Registered  bool
	ActiveMonth core.MonthYear
}

// Apply folds one event into the state. It is pure: the same ordered
// event list always folds to the same state.
func Apply(s State, ev eventstore.EventData) State {
	switch e := ev.(type) {
	case *NewAccountRegistered:
		s.Registered = true
		s.ActiveMonth = e.ActiveMonth
	case *NextMonthStarted:
		s.ActiveMonth = core.MonthYear{Month: e.Month, Year: e.Year}
	}
	return s
}

// Handle validates a command against the folded state and returns the
// events to emit. It has no side effects.
func Handle(s State, cmd Command) ([]eventstore.EventData, error) {
	switch c := cmd.(type) {
	case RegisterNewAccount:
		if s.Registered {
			return nil, ErrAlreadyRegistered
		}
		return []eventstore.EventData{&NewAccountRegistered{
			AccountID:           c.AccountID,
			BankName:            c.BankName,
			Name:                c.Name,
			AccountType:         c.AccountType,
			StartingBalance:     c.StartingBalance,
			StartingBalanceDate: c.StartingBalanceDate,
			Notes:               c.Notes,
			ActiveMonth:         c.StartingBalanceDate.MonthYear(),
		}}, nil

	case StartNextMonth:
		if !s.Registered {
			return nil, ErrNotRegistered
		}
		// No balance validation here: the ledger aggregate is
		// authoritative for balance correctness.
		next := s.ActiveMonth.Next()
		return []eventstore.EventData{&NextMonthStarted{
			AccountID: c.AccountID,
			Balance:   c.Balance,
			Month:     next.Month,
			Year:      next.Year,
		}}, nil

	default:
		return nil, fmt.Errorf("account: no handler for command %q", cmd.CommandType())
	}
}

// Definition wires the account aggregate into the command bus.
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
				return nil, fmt.Errorf("account: unexpected command type %T", cmd)
			}
			return Handle(state.(State), c)
		},
	}
}
