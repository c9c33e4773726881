package projection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"contabile/internal/account"
	"contabile/internal/core"
	"contabile/internal/eventstore"
	"contabile/internal/ledger"
	"contabile/internal/log"
	"contabile/internal/movementtype"
	"contabile/internal/readmodel/memory"
	"contabile/internal/tagcategory"
)

func testLogger() *log.Logger {
	return log.NewWithHandler(slog.NewTextHandler(io.Discard, nil))
}

func wrap(data eventstore.EventData) eventstore.Event {
	return eventstore.Event{Type: data.EventType(), Data: data}
}

func TestAccountProjection(t *testing.T) {
	store := memory.New()
	projection := NewAccountProjection(store)
	ctx := context.Background()

	accountID := core.NewAccountID()
	err := projection.HandleEvent(ctx, wrap(&account.NewAccountRegistered{
		AccountID:           accountID,
		BankName:            "N26",
		Name:                "main",
		AccountType:         core.Checking,
		StartingBalance:     core.NewMoney(10000, core.EUR),
		StartingBalanceDate: core.NewDate(2024, time.January, 15),
		ActiveMonth:         core.MonthYear{Month: time.January, Year: 2024},
	}))
	if err != nil {
		t.Fatalf("registration: %v", err)
	}

	err = projection.HandleEvent(ctx, wrap(&account.NextMonthStarted{
		AccountID: accountID,
		Balance:   core.NewMoney(12000, core.EUR),
		Month:     time.February,
		Year:      2024,
	}))
	if err != nil {
		t.Fatalf("month advance: %v", err)
	}

	row, err := store.GetAccount(ctx, accountID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if row.ActiveMonth != (core.MonthYear{Month: time.February, Year: 2024}) {
		t.Fatalf("active month = %v", row.ActiveMonth)
	}
}

func TestAccountProjection_MissingRowIsFatal(t *testing.T) {
	projection := NewAccountProjection(memory.New())

	err := projection.HandleEvent(context.Background(), wrap(&account.NextMonthStarted{
		AccountID: core.NewAccountID(),
		Month:     time.February,
		Year:      2024,
	}))

	var failure *ActiveMonthUpdateFailureError
	if !errors.As(err, &failure) {
		t.Fatalf("expected ActiveMonthUpdateFailureError, got %v", err)
	}
}

func TestLedgerProjection_Idempotence(t *testing.T) {
	store := memory.New()
	projection := NewLedgerProjection(store)
	ctx := context.Background()

	ledgerID := core.NewLedgerID(core.NewAccountID(), time.January, 2024)
	err := projection.HandleEvent(ctx, wrap(&ledger.MonthBalanceOpened{
		LedgerID: ledgerID,
		Balance:  core.NewMoney(10000, core.EUR),
	}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	registered := &ledger.TransactionRegistered{
		LedgerID:      ledgerID,
		TransactionID: core.NewTransactionID(),
		Action:        core.Debit,
		Amount:        core.NewMoney(-1500, core.EUR),
		Date:          core.NewDate(2024, time.January, 10),
	}

	// At-least-once delivery: the same event arrives twice.
	for range 2 {
		if err := projection.HandleEvent(ctx, wrap(registered)); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	month, err := store.GetLedgerMonth(ctx, ledgerID)
	if err != nil {
		t.Fatalf("get month: %v", err)
	}
	if len(month.Transactions) != 1 {
		t.Fatalf("transactions = %d, want 1", len(month.Transactions))
	}
	if month.Balance.Cents != 8500 {
		t.Fatalf("balance = %d, want 8500", month.Balance.Cents)
	}

	err = projection.HandleEvent(ctx, wrap(&ledger.MonthBalanceClosed{
		LedgerID: ledgerID,
		Balance:  core.NewMoney(8500, core.EUR),
	}))
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	month, _ = store.GetLedgerMonth(ctx, ledgerID)
	if !month.Closed {
		t.Fatal("month not closed")
	}
}

func TestLedgerProjection_TransactionOrdering(t *testing.T) {
	store := memory.New()
	projection := NewLedgerProjection(store)
	ctx := context.Background()

	ledgerID := core.NewLedgerID(core.NewAccountID(), time.January, 2024)
	if err := projection.HandleEvent(ctx, wrap(&ledger.MonthBalanceOpened{
		LedgerID: ledgerID,
		Balance:  core.NewMoney(0, core.EUR),
	})); err != nil {
		t.Fatalf("open: %v", err)
	}

	late := core.NewDate(2024, time.January, 20)
	early := core.NewDate(2024, time.January, 5)
	for _, date := range []core.Date{late, early} {
		err := projection.HandleEvent(ctx, wrap(&ledger.TransactionRegistered{
			LedgerID:      ledgerID,
			TransactionID: core.NewTransactionID(),
			Action:        core.Credit,
			Amount:        core.NewMoney(100, core.EUR),
			Date:          date,
		}))
		if err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	month, err := store.GetLedgerMonth(ctx, ledgerID)
	if err != nil {
		t.Fatalf("get month: %v", err)
	}
	if !month.Transactions[0].Date.Equal(early.Time) {
		t.Fatalf("first transaction dated %s", month.Transactions[0].Date)
	}
}

func TestMovementTypeProjection(t *testing.T) {
	store := memory.New()
	projection := NewMovementTypeProjection(store)
	ctx := context.Background()

	id := core.NewMovementTypeID()
	err := projection.HandleEvent(ctx, wrap(&movementtype.NewMovementTypeRegistered{
		MovementTypeID: id,
		Action:         core.Debit,
		AccountID:      core.NewAccountID(),
		Description:    "groceries",
	}))
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	row, err := store.GetMovementType(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.Description != "groceries" {
		t.Fatalf("row = %+v", row)
	}
}

func TestTagCategoryProjection(t *testing.T) {
	store := memory.New()
	projection := NewTagCategoryProjection(store)
	ctx := context.Background()

	categoryID := core.NewTagCategoryID()
	first := tagcategory.Tag{TagID: core.NewTagID(), Name: "food"}
	err := projection.HandleEvent(ctx, wrap(&tagcategory.NewTagAddedToNewCategory{
		TagCategoryID: categoryID,
		Name:          "expenses",
		Tag:           first,
	}))
	if err != nil {
		t.Fatalf("new category: %v", err)
	}

	second := tagcategory.Tag{TagID: core.NewTagID(), Name: "transport"}
	appended := &tagcategory.NewTagAddedToExistingCategory{
		TagCategoryID: categoryID,
		Tag:           second,
	}
	// Replayed append must not duplicate the tag.
	for range 2 {
		if err := projection.HandleEvent(ctx, wrap(appended)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	category, err := store.GetTagCategory(ctx, categoryID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(category.Tags) != 2 {
		t.Fatalf("tags = %+v", category.Tags)
	}
}

type countingHandler struct {
	seen chan eventstore.Event
}

func (h *countingHandler) HandleEvent(_ context.Context, ev eventstore.Event) error {
	h.seen <- ev
	return nil
}

func collect(t *testing.T, ch <-chan eventstore.Event, n int) []eventstore.Event {
	t.Helper()
	events := make([]eventstore.Event, 0, n)
	deadline := time.After(5 * time.Second)
	for len(events) < n {
		select {
		case ev := <-ch:
			events = append(events, ev)
		case <-deadline:
			t.Fatalf("saw %d events, want %d", len(events), n)
		}
	}
	return events
}

func TestManager_RestartReplaysFromStart(t *testing.T) {
	store := eventstore.NewMemoryStore()
	ctx := context.Background()

	accountID := core.NewAccountID()
	_, err := store.Append(ctx, account.AggregateType, accountID.UUID(), 0, []eventstore.EventData{
		&account.NewAccountRegistered{AccountID: accountID},
		&account.NextMonthStarted{AccountID: accountID, Month: time.February, Year: 2024},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}

	handler := &countingHandler{seen: make(chan eventstore.Event, 16)}
	processor := eventstore.NewProcessor("restart-group", "node-a", store, store, handler,
		testLogger(), eventstore.WithPollInterval(10*time.Millisecond))

	manager := NewManager(store, "node-a", testLogger())
	manager.Register(processor)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	fatal := manager.Run(runCtx)

	collect(t, handler.seen, 2)

	if err := manager.Restart(ctx, "restart-group"); err != nil {
		t.Fatalf("restart: %v", err)
	}

	// The rewound group replays the full log.
	replayed := collect(t, handler.seen, 2)
	if replayed[0].GlobalSeq != 1 {
		t.Fatalf("replay started at %d", replayed[0].GlobalSeq)
	}

	select {
	case err := <-fatal:
		t.Fatalf("fatal: %v", err)
	default:
	}
	manager.Stop()
}

func TestManager_ResetUnsupported(t *testing.T) {
	store := eventstore.NewMemoryStore()
	handler := &countingHandler{seen: make(chan eventstore.Event, 16)}
	processor := eventstore.NewProcessor("export-group", "node-a", store, store, handler,
		testLogger(), eventstore.WithoutReset())

	manager := NewManager(store, "node-a", testLogger())
	manager.Register(processor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.Run(ctx)
	defer manager.Stop()

	if err := manager.Restart(ctx, "export-group"); !errors.Is(err, ErrResetUnsupported) {
		t.Fatalf("expected ErrResetUnsupported, got %v", err)
	}
}

func TestManager_UnknownGroup(t *testing.T) {
	manager := NewManager(eventstore.NewMemoryStore(), "node-a", testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	manager.Run(ctx)

	if err := manager.Restart(ctx, "nope"); !errors.Is(err, ErrUnknownGroup) {
		t.Fatalf("expected ErrUnknownGroup, got %v", err)
	}
}
