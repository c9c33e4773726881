package core

// MovementAction is the direction of a ledger movement. It is derived
// once from the sign of the raw amount at registration time and frozen
// into the emitted event.
type MovementAction string

const (
	Credit MovementAction = "credit"
	Debit  MovementAction = "debit"
)

// ActionForAmount derives the movement action from a signed amount:
// negative means debit, everything else credit.
func ActionForAmount(amount Money) MovementAction {
	if amount.IsNegative() {
		return Debit
	}
	return Credit
}

type AccountType string

const (
	Checking AccountType = "checking"
	Savings  AccountType = "savings"
)
