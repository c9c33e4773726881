package account

import (
	"errors"
	"testing"
	"time"

	"contabile/internal/core"
	"contabile/internal/eventstore"
)

func TestHandle_RegisterNewAccount(t *testing.T) {
	accountID := core.NewAccountID()
	cmd := RegisterNewAccount{
		AccountID:           accountID,
		BankName:            "N26",
		Name:                "main",
		AccountType:         core.Checking,
		StartingBalance:     core.NewMoney(10000, core.EUR),
		StartingBalanceDate: core.NewDate(2024, time.January, 15),
	}

	events, err := Handle(State{}, cmd)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("emitted %d events, want 1", len(events))
	}

	ev, ok := events[0].(*NewAccountRegistered)
	if !ok {
		t.Fatalf("emitted %T", events[0])
	}
	want := core.MonthYear{Month: time.January, Year: 2024}
	if ev.ActiveMonth != want {
		t.Fatalf("ActiveMonth = %v, want %v", ev.ActiveMonth, want)
	}
	if ev.StartingBalance != cmd.StartingBalance {
		t.Fatalf("StartingBalance = %v", ev.StartingBalance)
	}
}

func TestHandle_RegisterNewAccount_AlreadyRegistered(t *testing.T) {
	state := Apply(State{}, &NewAccountRegistered{
		AccountID:   core.NewAccountID(),
		ActiveMonth: core.MonthYear{Month: time.March, Year: 2024},
	})

	_, err := Handle(state, RegisterNewAccount{AccountID: core.NewAccountID()})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestHandle_StartNextMonth(t *testing.T) {
	tests := []struct {
		name   string
		active core.MonthYear
		want   core.MonthYear
	}{
		{"mid-year", core.MonthYear{Month: time.January, Year: 2024}, core.MonthYear{Month: time.February, Year: 2024}},
		{"december rolls the year", core.MonthYear{Month: time.December, Year: 2024}, core.MonthYear{Month: time.January, Year: 2025}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accountID := core.NewAccountID()
			state := State{Registered: true, ActiveMonth: tt.active}

			events, err := Handle(state, StartNextMonth{
				AccountID: accountID,
				Balance:   core.NewMoney(12000, core.EUR),
			})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}

			ev := events[0].(*NextMonthStarted)
			if ev.Month != tt.want.Month || ev.Year != tt.want.Year {
				t.Fatalf("advanced to %v/%d, want %v", ev.Month, ev.Year, tt.want)
			}
			if ev.Balance.Cents != 12000 {
				t.Fatalf("Balance = %v", ev.Balance)
			}
		})
	}
}

func TestHandle_StartNextMonth_NotRegistered(t *testing.T) {
	_, err := Handle(State{}, StartNextMonth{AccountID: core.NewAccountID()})
	if !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestApply_ReplayDeterminism(t *testing.T) {
	accountID := core.NewAccountID()
	history := []eventstore.EventData{
		&NewAccountRegistered{
			AccountID:   accountID,
			ActiveMonth: core.MonthYear{Month: time.November, Year: 2023},
		},
		&NextMonthStarted{AccountID: accountID, Month: time.December, Year: 2023},
		&NextMonthStarted{AccountID: accountID, Month: time.January, Year: 2024},
	}

	fold := func() State {
		s := State{}
		for _, ev := range history {
			s = Apply(s, ev)
		}
		return s
	}

	first, second := fold(), fold()
	if first != second {
		t.Fatalf("replay mismatch: %+v vs %+v", first, second)
	}
	if first.ActiveMonth != (core.MonthYear{Month: time.January, Year: 2024}) {
		t.Fatalf("ActiveMonth = %v", first.ActiveMonth)
	}
}
