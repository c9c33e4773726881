package ledger

import (
	"errors"
	"testing"
	"time"

	"contabile/internal/core"
	"contabile/internal/eventstore"
)

func testLedgerID() core.LedgerID {
	return core.NewLedgerID(core.NewAccountID(), time.January, 2024)
}

func openState(t *testing.T, id core.LedgerID, cents int64) State {
	t.Helper()
	events, err := Handle(State{}, OpenBalanceForMonth{
		LedgerID: id,
		Balance:  core.NewMoney(cents, core.EUR),
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := State{}
	for _, ev := range events {
		s = Apply(s, ev)
	}
	return s
}

func TestHandle_OpenBalanceForMonth(t *testing.T) {
	id := testLedgerID()
	s := openState(t, id, 10000)

	if !s.Opened || s.Closed {
		t.Fatalf("state = %+v", s)
	}
	if s.Balance.Cents != 10000 || s.StartBalance.Cents != 10000 {
		t.Fatalf("balance = %v, start = %v", s.Balance, s.StartBalance)
	}

	if _, err := Handle(s, OpenBalanceForMonth{LedgerID: id}); !errors.Is(err, ErrAlreadyOpened) {
		t.Fatalf("expected ErrAlreadyOpened, got %v", err)
	}
}

func TestHandle_RegisterTransaction_ActionFromSign(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		want  core.MovementAction
	}{
		{"negative amount is a debit", -1500, core.Debit},
		{"positive amount is a credit", 2000, core.Credit},
		{"zero amount is a credit", 0, core.Credit},
	}

	id := testLedgerID()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openState(t, id, 10000)
			events, err := Handle(s, RegisterTransaction{
				LedgerID:       id,
				TransactionID:  core.NewTransactionID(),
				MovementTypeID: core.NewMovementTypeID(),
				Amount:         core.NewMoney(tt.cents, core.EUR),
				Date:           core.NewDate(2024, time.January, 10),
			})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}

			ev := events[0].(*TransactionRegistered)
			if ev.Action != tt.want {
				t.Fatalf("action = %q, want %q", ev.Action, tt.want)
			}

			s = Apply(s, ev)
			if s.Balance.Cents != 10000+tt.cents {
				t.Fatalf("balance = %d, want %d", s.Balance.Cents, 10000+tt.cents)
			}
		})
	}
}

func TestHandle_RegisterTransaction_NotOpened(t *testing.T) {
	id := testLedgerID()
	_, err := Handle(State{}, RegisterTransaction{
		LedgerID:      id,
		TransactionID: core.NewTransactionID(),
		Amount:        core.NewMoney(-100, core.EUR),
	})
	if !errors.Is(err, ErrNotOpened) {
		t.Fatalf("expected ErrNotOpened, got %v", err)
	}
}

func TestHandle_RegisterTransaction_ClosedMonth(t *testing.T) {
	id := testLedgerID()
	s := openState(t, id, 5000)
	s = Apply(s, &MonthBalanceClosed{LedgerID: id, Balance: core.NewMoney(5000, core.EUR)})

	_, err := Handle(s, RegisterTransaction{
		LedgerID:      id,
		TransactionID: core.NewTransactionID(),
		Amount:        core.NewMoney(-100, core.EUR),
	})
	if !errors.Is(err, ErrLedgerClosed) {
		t.Fatalf("expected ErrLedgerClosed, got %v", err)
	}
}

func TestHandle_RegisterTransaction_CurrencyMismatch(t *testing.T) {
	id := testLedgerID()
	s := openState(t, id, 5000)

	_, err := Handle(s, RegisterTransaction{
		LedgerID:      id,
		TransactionID: core.NewTransactionID(),
		Amount:        core.NewMoney(-100, core.USD),
	})
	if !errors.Is(err, core.ErrCurrencyMismatch) {
		t.Fatalf("expected currency mismatch, got %v", err)
	}
}

func TestHandle_CloseBalanceForMonth(t *testing.T) {
	id := testLedgerID()
	s := openState(t, id, 10000)

	for _, cents := range []int64{-1500, 2000, -300} {
		events, err := Handle(s, RegisterTransaction{
			LedgerID:       id,
			TransactionID:  core.NewTransactionID(),
			MovementTypeID: core.NewMovementTypeID(),
			Amount:         core.NewMoney(cents, core.EUR),
			Date:           core.NewDate(2024, time.January, 10),
		})
		if err != nil {
			t.Fatalf("register: %v", err)
		}
		s = Apply(s, events[0])
	}

	// 10000 - 1500 + 2000 - 300 = 10200
	t.Run("mismatched declared balance stays open", func(t *testing.T) {
		_, err := Handle(s, CloseBalanceForMonth{
			LedgerID: id,
			Balance:  core.NewMoney(9000, core.EUR),
		})
		var mismatch *CloseBalanceMismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected CloseBalanceMismatchError, got %v", err)
		}
		if mismatch.Computed.Cents != 10200 || mismatch.Declared.Cents != 9000 {
			t.Fatalf("computed %v, declared %v", mismatch.Computed, mismatch.Declared)
		}
	})

	t.Run("matching declared balance closes", func(t *testing.T) {
		events, err := Handle(s, CloseBalanceForMonth{
			LedgerID: id,
			Balance:  core.NewMoney(10200, core.EUR),
		})
		if err != nil {
			t.Fatalf("close: %v", err)
		}
		closed := Apply(s, events[0])
		if !closed.Closed {
			t.Fatalf("state = %+v", closed)
		}
	})
}

func TestHandle_CloseBalanceForMonth_Twice(t *testing.T) {
	id := testLedgerID()
	s := openState(t, id, 5000)
	s = Apply(s, &MonthBalanceClosed{LedgerID: id, Balance: core.NewMoney(5000, core.EUR)})

	_, err := Handle(s, CloseBalanceForMonth{LedgerID: id, Balance: core.NewMoney(5000, core.EUR)})
	if !errors.Is(err, ErrLedgerClosed) {
		t.Fatalf("expected ErrLedgerClosed, got %v", err)
	}
}

func TestApply_ReplayDeterminism(t *testing.T) {
	id := testLedgerID()
	history := []eventstore.EventData{
		&MonthBalanceOpened{LedgerID: id, Balance: core.NewMoney(10000, core.EUR)},
		&TransactionRegistered{
			LedgerID:      id,
			TransactionID: core.NewTransactionID(),
			Action:        core.Debit,
			Amount:        core.NewMoney(-1500, core.EUR),
		},
		&TransactionRegistered{
			LedgerID:      id,
			TransactionID: core.NewTransactionID(),
			Action:        core.Credit,
			Amount:        core.NewMoney(2000, core.EUR),
		},
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
	if first.Balance.Cents != 10500 {
		t.Fatalf("balance = %d, want 10500", first.Balance.Cents)
	}
}
