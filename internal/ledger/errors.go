package ledger

import (
	"errors"
	"fmt"

	"contabile/internal/core"
)

var (
	ErrAlreadyOpened = errors.New("ledger: month already opened")
	ErrNotOpened     = errors.New("ledger: month not opened")
	ErrLedgerClosed  = errors.New("ledger: month is closed")
)

// CloseBalanceMismatchError reports a close attempt whose declared end
// balance disagrees with the balance computed from the registered
// transactions. The month stays open.
type CloseBalanceMismatchError struct {
	LedgerID core.LedgerID
	Computed core.Money
	Declared core.Money
}

func (e *CloseBalanceMismatchError) Error() string {
	return fmt.Sprintf("ledger %s: close balance mismatch: computed %s, declared %s",
		e.LedgerID, e.Computed, e.Declared)
}
