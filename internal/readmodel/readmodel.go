// Package readmodel defines the query-side row models and the storage
// ports the projections write through. Implementations must tolerate
// at-least-once delivery: re-applying a write must not duplicate rows
// or double-count balances.
package readmodel

import (
	"context"
	"errors"
	"time"

	"contabile/internal/core"
)

// ErrNotFound is returned by Get* calls when no row exists for the id.
var ErrNotFound = errors.New("readmodel: not found")

// Account is the query-side view of a registered account.
type Account struct {
	AccountID           core.AccountID   `json:"account_id"`
	BankName            string           `json:"bank_name"`
	Name                string           `json:"name"`
	AccountType         core.AccountType `json:"account_type"`
	StartingBalance     core.Money       `json:"starting_balance"`
	StartingBalanceDate core.Date        `json:"starting_balance_date"`
	Notes               string           `json:"notes,omitempty"`
	ActiveMonth         core.MonthYear   `json:"active_month"`
}

// Transaction is one movement inside a ledger month view.
type Transaction struct {
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

// LedgerMonth is the query-side view of one account month. Transactions
// are ordered by (date ascending, transaction id ascending).
type LedgerMonth struct {
	LedgerID     core.LedgerID `json:"ledger_id"`
	AccountID    core.AccountID `json:"account_id"`
	Month        time.Month    `json:"month"`
	Year         int           `json:"year"`
	StartBalance core.Money    `json:"start_balance"`
	Balance      core.Money    `json:"balance"`
	Closed       bool          `json:"closed"`
	Transactions []Transaction `json:"transactions"`
}

// MovementType is the query-side view of a movement type.
type MovementType struct {
	MovementTypeID  core.MovementTypeID `json:"movement_type_id"`
	Action          core.MovementAction `json:"action"`
	AccountID       core.AccountID      `json:"account_id"`
	SourceAccountID core.AccountID      `json:"source_account_id,omitempty"`
	Description     string              `json:"description"`
	Notes           string              `json:"notes,omitempty"`
	TagIDs          []core.TagID        `json:"tag_ids"`
}

// Tag is one label inside a tag category view.
type Tag struct {
	TagID core.TagID `json:"tag_id"`
	Name  string     `json:"name"`
	Notes string     `json:"notes,omitempty"`
}

// TagCategory is the query-side view of a tag category.
type TagCategory struct {
	TagCategoryID core.TagCategoryID `json:"tag_category_id"`
	Name          string             `json:"name"`
	Notes         string             `json:"notes,omitempty"`
	Tags          []Tag              `json:"tags"`
}

// AccountStore persists the account view.
type AccountStore interface {
	UpsertAccount(ctx context.Context, account Account) error
	// UpdateActiveMonth changes only the active month of an existing
	// row. It reports whether a row was updated.
	UpdateActiveMonth(ctx context.Context, id core.AccountID, month core.MonthYear) (bool, error)
	GetAccount(ctx context.Context, id core.AccountID) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	AccountExists(ctx context.Context, id core.AccountID) (bool, error)
}

// LedgerStore persists the ledger month view.
type LedgerStore interface {
	UpsertLedgerMonth(ctx context.Context, month LedgerMonth) error
	// AppendTransaction adds one transaction to an open month with set
	// semantics keyed by transaction id, adjusting the stored balance by
	// the signed amount. It reports whether the transaction was newly
	// appended; re-appending a known id is a no-op.
	AppendTransaction(ctx context.Context, id core.LedgerID, tx Transaction) (bool, error)
	// CloseLedgerMonth sets the stored balance to the declared close
	// balance and marks the month closed.
	CloseLedgerMonth(ctx context.Context, id core.LedgerID, balance core.Money) error
	GetLedgerMonth(ctx context.Context, id core.LedgerID) (LedgerMonth, error)
}

// MovementTypeStore persists the movement type view.
type MovementTypeStore interface {
	UpsertMovementType(ctx context.Context, mt MovementType) error
	GetMovementType(ctx context.Context, id core.MovementTypeID) (MovementType, error)
	ListMovementTypes(ctx context.Context) ([]MovementType, error)
}

// TagCategoryStore persists the tag category view and answers the
// global uniqueness questions pre-validation asks.
type TagCategoryStore interface {
	UpsertTagCategory(ctx context.Context, category TagCategory) error
	// AppendTag adds one tag to an existing category with set semantics
	// keyed by tag id. Re-appending a known id is a no-op.
	AppendTag(ctx context.Context, id core.TagCategoryID, tag Tag) error
	GetTagCategory(ctx context.Context, id core.TagCategoryID) (TagCategory, error)
	ListTagCategories(ctx context.Context) ([]TagCategory, error)
	TagCategoryExists(ctx context.Context, id core.TagCategoryID) (bool, error)
	TagCategoryNameExists(ctx context.Context, name string) (bool, error)
	// TagExists reports whether any category holds the tag id.
	TagExists(ctx context.Context, id core.TagID) (bool, error)
	// TagNameExists reports whether any category holds a tag with the name.
	TagNameExists(ctx context.Context, name string) (bool, error)
}

// Store bundles every read-model port.
type Store interface {
	AccountStore
	LedgerStore
	MovementTypeStore
	TagCategoryStore
}
