// Package account models a bank account as an event-sourced state
// machine. The account tracks which calendar month is currently active;
// balance correctness is the ledger aggregate's responsibility.
package account

import (
	"github.com/google/uuid"

	"contabile/internal/core"
)

const AggregateType = "account"

const (
	RegisterNewAccountCommand = "register_new_account"
	StartNextMonthCommand     = "start_next_month"
)

// Command is the closed set of commands addressed to an account.
type Command interface {
	AggregateID() uuid.UUID
	AggregateType() string
	CommandType() string
	isAccountCommand()
}

// RegisterNewAccount creates the account. Valid only when no prior
// state exists for the id.
type RegisterNewAccount struct {
	AccountID           core.AccountID
	BankName            string
	Name                string
	AccountType         core.AccountType
	StartingBalance     core.Money
	StartingBalanceDate core.Date
	Notes               string
}

func (c RegisterNewAccount) AggregateID() uuid.UUID  { return c.AccountID.UUID() }
func (c RegisterNewAccount) AggregateType() string   { return AggregateType }
func (c RegisterNewAccount) CommandType() string     { return RegisterNewAccountCommand }
func (c RegisterNewAccount) isAccountCommand()       {}

// StartNextMonth advances the active month by exactly one calendar
// month, carrying the closing balance of the month that just ended.
type StartNextMonth struct {
	AccountID core.AccountID
	Balance   core.Money
}

func (c StartNextMonth) AggregateID() uuid.UUID { return c.AccountID.UUID() }
func (c StartNextMonth) AggregateType() string  { return AggregateType }
func (c StartNextMonth) CommandType() string    { return StartNextMonthCommand }
func (c StartNextMonth) isAccountCommand()      {}
