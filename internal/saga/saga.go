// Package saga coordinates the ledger-month lifecycle across the
// account and ledger aggregates, which can never be updated atomically
// together. Each account gets one process instance correlated by its
// account id; instances run independently.
package saga

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"contabile/internal/account"
	"contabile/internal/commandbus"
	"contabile/internal/core"
	"contabile/internal/eventstore"
	"contabile/internal/ledger"
	"contabile/internal/log"
)

// GroupName is the processing group the saga consumes under.
const GroupName = "ledger-lifecycle-saga"

const sagaType = "ledger-lifecycle"

// DefaultDispatchTimeout bounds each synchronous follow-up dispatch.
const DefaultDispatchTimeout = 5 * time.Second

// causeChainDepth bounds how far down a failure's cause chain gets
// logged before the rest is elided.
const causeChainDepth = 10

// SagaTimedOutError reports a follow-up dispatch that did not complete
// within the dispatch timeout.
type SagaTimedOutError struct {
	SagaType  string
	EventName string
}

func (e *SagaTimedOutError) Error() string {
	return fmt.Sprintf("saga %s: dispatch timed out handling %s", e.SagaType, e.EventName)
}

// Dispatcher submits a follow-up command and blocks until it is handled
// or the context expires.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd commandbus.Command) error
}

type instance struct {
	accountID core.AccountID
	currency  core.Currency
}

// LifecycleSaga reacts to account and ledger events:
//
//	NewAccountRegistered -> OpenBalanceForMonth for the starting month
//	MonthBalanceClosed   -> StartNextMonth carrying the close balance
//	NextMonthStarted     -> OpenBalanceForMonth for the new month
//
// A failed step terminates the instance; events already emitted by
// earlier steps stay committed and reconciliation is manual. The event
// stream itself keeps moving: one dead instance never halts the
// processing group, and a redelivered event whose follow-up was already
// applied (the ledger id is deterministic) counts as success.
type LifecycleSaga struct {
	dispatcher Dispatcher
	logger     *log.Logger
	timeout    time.Duration

	mu sync.Mutex
	// Correlation: account id to live instance, plus the ledger ids the
	// instance is transitionally associated with while a month is open.
	instances map[core.AccountID]*instance
	byLedger  map[string]core.AccountID
}

func NewLifecycleSaga(dispatcher Dispatcher, logger *log.Logger, timeout time.Duration) *LifecycleSaga {
	if timeout <= 0 {
		timeout = DefaultDispatchTimeout
	}
	return &LifecycleSaga{
		dispatcher: dispatcher,
		logger:     logger.WithComponent(log.ComponentSaga),
		timeout:    timeout,
		instances:  make(map[core.AccountID]*instance),
		byLedger:   make(map[string]core.AccountID),
	}
}

// HandleEvent advances the saga instance the event correlates with.
// Unrelated events are ignored. It always returns nil: a failed step
// kills its own instance, not the processing group, so the position
// advances past the event instead of replaying the failure forever.
func (s *LifecycleSaga) HandleEvent(ctx context.Context, ev eventstore.Event) error {
	switch e := ev.Data.(type) {
	case *account.NewAccountRegistered:
		s.onAccountRegistered(ctx, e)
	case *ledger.MonthBalanceClosed:
		s.onMonthClosed(ctx, e)
	case *account.NextMonthStarted:
		s.onNextMonthStarted(ctx, e)
	}
	return nil
}

func (s *LifecycleSaga) onAccountRegistered(ctx context.Context, e *account.NewAccountRegistered) error {
	inst := &instance{accountID: e.AccountID, currency: e.StartingBalance.Currency}
	ledgerID := core.LedgerIDForMonth(e.AccountID, e.ActiveMonth)

	s.mu.Lock()
	s.instances[e.AccountID] = inst
	s.byLedger[ledgerID.String()] = e.AccountID
	s.mu.Unlock()

	s.logger.Info("Lifecycle started for new account",
		log.FieldSaga, sagaType,
		log.FieldAggregateID, e.AccountID,
		"month", e.ActiveMonth.String())

	return s.dispatch(ctx, account.NewAccountRegisteredEvent, ledger.OpenBalanceForMonth{
		LedgerID: ledgerID,
		Balance:  e.StartingBalance,
	})
}

func (s *LifecycleSaga) onMonthClosed(ctx context.Context, e *ledger.MonthBalanceClosed) error {
	s.mu.Lock()
	// The close arrives under the transitional ledger-id association;
	// re-associate by account id so the NextMonthStarted that follows
	// reaches the same instance.
	accountID, ok := s.byLedger[e.LedgerID.String()]
	if !ok {
		accountID = e.LedgerID.AccountID
	}
	if _, live := s.instances[accountID]; !live {
		s.instances[accountID] = &instance{accountID: accountID, currency: e.Balance.Currency}
	}
	delete(s.byLedger, e.LedgerID.String())
	s.mu.Unlock()

	return s.dispatch(ctx, ledger.MonthBalanceClosedEvent, account.StartNextMonth{
		AccountID: accountID,
		Balance:   e.Balance,
	})
}

func (s *LifecycleSaga) onNextMonthStarted(ctx context.Context, e *account.NextMonthStarted) error {
	ledgerID := core.NewLedgerID(e.AccountID, e.Month, e.Year)

	s.mu.Lock()
	s.byLedger[ledgerID.String()] = e.AccountID
	s.mu.Unlock()

	err := s.dispatch(ctx, account.NextMonthStartedEvent, ledger.OpenBalanceForMonth{
		LedgerID: ledgerID,
		Balance:  e.Balance,
	})
	if err != nil {
		return err
	}

	s.logger.Info("Month opened, lifecycle step complete",
		log.FieldSaga, sagaType,
		log.FieldAggregateID, e.AccountID,
		"month", ledgerID.MonthYear().String())
	return nil
}

// dispatch issues one follow-up command with a bounded deadline. On
// failure it terminates the instance after logging the cause chain.
func (s *LifecycleSaga) dispatch(ctx context.Context, eventName string, cmd commandbus.Command) error {
	dispatchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.dispatcher.Dispatch(dispatchCtx, cmd)
	if err == nil {
		return nil
	}

	// A redelivered event re-dispatches its follow-up; the ledger id is
	// deterministic, so an already-opened month means the step is done.
	if errors.Is(err, ledger.ErrAlreadyOpened) {
		s.logger.Debug("Follow-up already applied, duplicate delivery ignored",
			log.FieldSaga, sagaType,
			log.FieldEvent, eventName,
			log.FieldCommand, cmd.CommandType())
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		err = &SagaTimedOutError{SagaType: sagaType, EventName: eventName}
	}
	s.logFailure(eventName, cmd, err)
	s.terminate(cmd)
	return err
}

// logFailure walks the cause chain at most causeChainDepth levels deep.
func (s *LifecycleSaga) logFailure(eventName string, cmd commandbus.Command, err error) {
	attrs := []any{
		log.FieldSaga, sagaType,
		log.FieldEvent, eventName,
		log.FieldCommand, cmd.CommandType(),
		log.FieldAggregateID, cmd.AggregateID(),
		log.FieldError, err,
	}
	cause := errors.Unwrap(err)
	for depth := 1; cause != nil && depth < causeChainDepth; depth++ {
		attrs = append(attrs, fmt.Sprintf("cause_%d", depth), cause.Error())
		cause = errors.Unwrap(cause)
	}
	if cause != nil {
		attrs = append(attrs, "cause_truncated", true)
	}
	s.logger.Error("Saga step failed, instance terminated", attrs...)
}

func (s *LifecycleSaga) terminate(cmd commandbus.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch c := cmd.(type) {
	case account.StartNextMonth:
		delete(s.instances, c.AccountID)
	case ledger.OpenBalanceForMonth:
		delete(s.instances, c.LedgerID.AccountID)
		delete(s.byLedger, c.LedgerID.String())
	}
}

// Active reports whether an instance is live for the account.
func (s *LifecycleSaga) Active(id core.AccountID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.instances[id]
	return ok
}

// Handler adapts the saga to a tracking processor handler.
func (s *LifecycleSaga) Handler() eventstore.Handler {
	return eventstore.HandlerFunc(s.HandleEvent)
}
