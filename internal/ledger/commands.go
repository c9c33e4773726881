// Package ledger models one calendar month of one account as an
// event-sourced balance. Every registered transaction adjusts the
// running balance; closing the month checks the declared end balance
// against the computed one and freezes the ledger.
package ledger

import (
	"github.com/google/uuid"

	"contabile/internal/core"
)

const AggregateType = "ledger"

const (
	OpenBalanceForMonthCommand  = "open_balance_for_month"
	RegisterTransactionCommand  = "register_transaction"
	CloseBalanceForMonthCommand = "close_balance_for_month"
)

// Command is the closed set of commands addressed to a ledger month.
type Command interface {
	AggregateID() uuid.UUID
	AggregateType() string
	CommandType() string
	isLedgerCommand()
}

// OpenBalanceForMonth opens the ledger for one account month with the
// balance carried over from the previous month (or the starting balance
// for a new account).
type OpenBalanceForMonth struct {
	LedgerID core.LedgerID
	Balance  core.Money
}

func (c OpenBalanceForMonth) AggregateID() uuid.UUID { return c.LedgerID.UUID() }
func (c OpenBalanceForMonth) AggregateType() string  { return AggregateType }
func (c OpenBalanceForMonth) CommandType() string    { return OpenBalanceForMonthCommand }
func (c OpenBalanceForMonth) isLedgerCommand()       {}

// RegisterTransaction records one movement in an open ledger month. The
// amount is signed; the debit/credit action is derived from its sign.
type RegisterTransaction struct {
	LedgerID        core.LedgerID
	TransactionID   core.TransactionID
	MovementTypeID  core.MovementTypeID
	Amount          core.Money
	Date            core.Date
	SourceAccountID core.AccountID
	Description     string
	Notes           string
	TagIDs          []core.TagID
}

func (c RegisterTransaction) AggregateID() uuid.UUID { return c.LedgerID.UUID() }
func (c RegisterTransaction) AggregateType() string  { return AggregateType }
func (c RegisterTransaction) CommandType() string    { return RegisterTransactionCommand }
func (c RegisterTransaction) isLedgerCommand()       {}

// CloseBalanceForMonth closes the ledger month. The declared balance
// must match the balance computed from the registered transactions.
type CloseBalanceForMonth struct {
	LedgerID core.LedgerID
	Balance  core.Money
}

func (c CloseBalanceForMonth) AggregateID() uuid.UUID { return c.LedgerID.UUID() }
func (c CloseBalanceForMonth) AggregateType() string  { return AggregateType }
func (c CloseBalanceForMonth) CommandType() string    { return CloseBalanceForMonthCommand }
func (c CloseBalanceForMonth) isLedgerCommand()       {}
