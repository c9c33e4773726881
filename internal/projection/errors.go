package projection

import (
	"fmt"

	"contabile/internal/core"
)

// ActiveMonthUpdateFailureError reports an active-month update that
// matched no account row. The read model has diverged from the event
// log; the group must halt rather than skip the event.
type ActiveMonthUpdateFailureError struct {
	AccountID core.AccountID
	Month     core.MonthYear
}

func (e *ActiveMonthUpdateFailureError) Error() string {
	return fmt.Sprintf("account %s: active month update to %s matched no row",
		e.AccountID, e.Month)
}
