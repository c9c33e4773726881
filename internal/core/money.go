// Package core provides the immutable value types shared by every
// aggregate: money, calendar dates, month/year pairs and identifiers.
package core

import (
	"errors"
	"fmt"
)

type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	CHF Currency = "CHF"
)

var ErrCurrencyMismatch = errors.New("mismatched money currencies")

// Money is a signed monetary amount kept as integer cents to avoid
// floating-point drift. Amounts may be negative; the sign carries the
// debit/credit direction of a transaction.
type Money struct {
	Cents    int64    `json:"cents"`
	Currency Currency `json:"currency"`
}

func NewMoney(cents int64, currency Currency) Money {
	return Money{Cents: cents, Currency: currency}
}

// Add returns m + other. Fails if the currencies differ.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Cents: m.Cents + other.Cents, Currency: m.Currency}, nil
}

// Sub returns m - other. Fails if the currencies differ.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s and %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return Money{Cents: m.Cents - other.Cents, Currency: m.Currency}, nil
}

func (m Money) IsNegative() bool {
	return m.Cents < 0
}

// String renders the amount with a fixed two-decimal representation,
// e.g. "-12.34 EUR".
func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", float64(m.Cents)/100.0, m.Currency)
}
