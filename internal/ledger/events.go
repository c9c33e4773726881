package ledger

import (
	"contabile/internal/core"
	"contabile/internal/eventstore"
)

const (
	MonthBalanceOpenedEvent    = "month_balance_opened"
	TransactionRegisteredEvent = "transaction_registered"
	MonthBalanceClosedEvent    = "month_balance_closed"
)

// MonthBalanceOpened opens the ledger month with its carried-over
// balance.
type MonthBalanceOpened struct {
	LedgerID core.LedgerID `json:"ledger_id"`
	Balance  core.Money    `json:"balance"`
}

func (MonthBalanceOpened) EventType() string { return MonthBalanceOpenedEvent }

// TransactionRegistered records one movement. Action is frozen at
// registration from the sign of the amount; replays never re-derive it.
type TransactionRegistered struct {
	LedgerID        core.LedgerID       `json:"ledger_id"`
	TransactionID   core.TransactionID  `json:"transaction_id"`
	MovementTypeID  core.MovementTypeID `json:"movement_type_id"`
	Action          core.MovementAction `json:"action"`
	Amount          core.Money          `json:"amount"`
	Date            core.Date           `json:"date"`
	SourceAccountID core.AccountID      `json:"source_account_id"`
	Description     string              `json:"description"`
	Notes           string              `json:"notes,omitempty"`
	TagIDs          []core.TagID        `json:"tag_ids"`
}

func (TransactionRegistered) EventType() string { return TransactionRegisteredEvent }

// MonthBalanceClosed freezes the ledger month at its final balance.
type MonthBalanceClosed struct {
	LedgerID core.LedgerID `json:"ledger_id"`
	Balance  core.Money    `json:"balance"`
}

func (MonthBalanceClosed) EventType() string { return MonthBalanceClosedEvent }

// RegisterEvents adds the ledger event types to the store registry.
func RegisterEvents(r *eventstore.Registry) {
	r.Register(MonthBalanceOpenedEvent, func() eventstore.EventData { return &MonthBalanceOpened{} })
	r.Register(TransactionRegisteredEvent, func() eventstore.EventData { return &TransactionRegistered{} })
	r.Register(MonthBalanceClosedEvent, func() eventstore.EventData { return &MonthBalanceClosed{} })
}
