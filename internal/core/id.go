package core

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Opaque identifiers wrapping a UUID. Equality is by value; the string
// form is the canonical UUID string. Identifiers are generated by the
// command producer, never by an aggregate.

type AccountID uuid.UUID

func NewAccountID() AccountID                  { return AccountID(uuid.New()) }
func ParseAccountID(s string) (AccountID, error) {
	u, err := uuid.Parse(s)
	return AccountID(u), err
}
func (id AccountID) String() string            { return uuid.UUID(id).String() }
func (id AccountID) UUID() uuid.UUID           { return uuid.UUID(id) }
func (id AccountID) IsZero() bool              { return id == AccountID{} }
func (id AccountID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *AccountID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = AccountID(u)
	return nil
}

type TransactionID uuid.UUID

func NewTransactionID() TransactionID { return TransactionID(uuid.New()) }
func ParseTransactionID(s string) (TransactionID, error) {
	u, err := uuid.Parse(s)
	return TransactionID(u), err
}
func (id TransactionID) String() string            { return uuid.UUID(id).String() }
func (id TransactionID) UUID() uuid.UUID           { return uuid.UUID(id) }
func (id TransactionID) IsZero() bool              { return id == TransactionID{} }
func (id TransactionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *TransactionID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = TransactionID(u)
	return nil
}

type MovementTypeID uuid.UUID

func NewMovementTypeID() MovementTypeID { return MovementTypeID(uuid.New()) }
func ParseMovementTypeID(s string) (MovementTypeID, error) {
	u, err := uuid.Parse(s)
	return MovementTypeID(u), err
}
func (id MovementTypeID) String() string            { return uuid.UUID(id).String() }
func (id MovementTypeID) UUID() uuid.UUID           { return uuid.UUID(id) }
func (id MovementTypeID) IsZero() bool              { return id == MovementTypeID{} }
func (id MovementTypeID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *MovementTypeID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = MovementTypeID(u)
	return nil
}

type TagID uuid.UUID

func NewTagID() TagID { return TagID(uuid.New()) }
func ParseTagID(s string) (TagID, error) {
	u, err := uuid.Parse(s)
	return TagID(u), err
}
func (id TagID) String() string            { return uuid.UUID(id).String() }
func (id TagID) UUID() uuid.UUID           { return uuid.UUID(id) }
func (id TagID) IsZero() bool              { return id == TagID{} }
func (id TagID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *TagID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = TagID(u)
	return nil
}

type TagCategoryID uuid.UUID

func NewTagCategoryID() TagCategoryID { return TagCategoryID(uuid.New()) }
func ParseTagCategoryID(s string) (TagCategoryID, error) {
	u, err := uuid.Parse(s)
	return TagCategoryID(u), err
}
func (id TagCategoryID) String() string            { return uuid.UUID(id).String() }
func (id TagCategoryID) UUID() uuid.UUID           { return uuid.UUID(id) }
func (id TagCategoryID) IsZero() bool              { return id == TagCategoryID{} }
func (id TagCategoryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id *TagCategoryID) UnmarshalText(b []byte) error {
	u, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*id = TagCategoryID(u)
	return nil
}

// LedgerID identifies one ledger month of one account. Its external id
// is a name-based UUID derived from the canonical "{accountId}|{month}|{year}"
// string, so equal triples always serialize to the same identifier. That
// makes "open if absent" idempotent and shards naturally by account+period.
type LedgerID struct {
	AccountID AccountID  `json:"account_id"`
	Month     time.Month `json:"month"`
	Year      int        `json:"year"`
}

func NewLedgerID(accountID AccountID, month time.Month, year int) LedgerID {
	return LedgerID{AccountID: accountID, Month: month, Year: year}
}

func LedgerIDForMonth(accountID AccountID, my MonthYear) LedgerID {
	return NewLedgerID(accountID, my.Month, my.Year)
}

func (id LedgerID) UUID() uuid.UUID {
	canonical := fmt.Sprintf("%s|%d|%d", id.AccountID, int(id.Month), id.Year)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(canonical))
}

func (id LedgerID) String() string {
	return id.UUID().String()
}

func (id LedgerID) MonthYear() MonthYear {
	return MonthYear{Month: id.Month, Year: id.Year}
}
