package account

import (
	"time"

	"contabile/internal/core"
	"contabile/internal/eventstore"
)

const (
	NewAccountRegisteredEvent = "new_account_registered"
	NextMonthStartedEvent     = "next_month_started"
)

// NewAccountRegistered carries every initial field. ActiveMonth starts
// at the month of the starting balance date.
type NewAccountRegistered struct {
	AccountID           core.AccountID   `json:"account_id"`
	BankName            string           `json:"bank_name"`
	Name                string           `json:"name"`
	AccountType         core.AccountType `json:"account_type"`
	StartingBalance     core.Money       `json:"starting_balance"`
	StartingBalanceDate core.Date        `json:"starting_balance_date"`
	Notes               string           `json:"notes,omitempty"`
	ActiveMonth         core.MonthYear   `json:"active_month"`
}

func (NewAccountRegistered) EventType() string { return NewAccountRegisteredEvent }

// NextMonthStarted records the advance to the next calendar month with
// the balance carried over from the closed ledger month.
type NextMonthStarted struct {
	AccountID core.AccountID `json:"account_id"`
	Balance   core.Money     `json:"balance"`
	Month     time.Month     `json:"month"`
	Year      int            `json:"year"`
}

func (NextMonthStarted) EventType() string { return NextMonthStartedEvent }

// RegisterEvents adds the account event types to the store registry.
func RegisterEvents(r *eventstore.Registry) {
	r.Register(NewAccountRegisteredEvent, func() eventstore.EventData { return &NewAccountRegistered{} })
	r.Register(NextMonthStartedEvent, func() eventstore.EventData { return &NextMonthStarted{} })
}
