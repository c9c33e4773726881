package movementtype

import (
	"errors"
	"testing"

	"contabile/internal/core"
)

func TestHandle_RegisterNewMovementType(t *testing.T) {
	cmd := RegisterNewMovementType{
		MovementTypeID:  core.NewMovementTypeID(),
		Action:          core.Debit,
		AccountID:       core.NewAccountID(),
		SourceAccountID: core.NewAccountID(),
		Description:     "groceries",
		TagIDs:          []core.TagID{core.NewTagID()},
	}

	events, err := Handle(State{}, cmd)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	ev := events[0].(*NewMovementTypeRegistered)
	if ev.MovementTypeID != cmd.MovementTypeID || ev.Action != core.Debit {
		t.Fatalf("event = %+v", ev)
	}

	if s := Apply(State{}, ev); !s.Registered {
		t.Fatal("not registered after apply")
	}
}

func TestHandle_SameAccountRejected(t *testing.T) {
	accountID := core.NewAccountID()
	events, err := Handle(State{}, RegisterNewMovementType{
		MovementTypeID:  core.NewMovementTypeID(),
		Action:          core.Credit,
		AccountID:       accountID,
		SourceAccountID: accountID,
	})

	var same *SameAccountError
	if !errors.As(err, &same) {
		t.Fatalf("expected SameAccountError, got %v", err)
	}
	if same.AccountID != accountID {
		t.Fatalf("error account = %s", same.AccountID)
	}
	if len(events) != 0 {
		t.Fatalf("emitted %d events on rejection", len(events))
	}
}

func TestHandle_NoSourceAccountAllowed(t *testing.T) {
	_, err := Handle(State{}, RegisterNewMovementType{
		MovementTypeID: core.NewMovementTypeID(),
		Action:         core.Credit,
		AccountID:      core.NewAccountID(),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestHandle_AlreadyRegistered(t *testing.T) {
	s := State{Registered: true}
	_, err := Handle(s, RegisterNewMovementType{
		MovementTypeID: core.NewMovementTypeID(),
		AccountID:      core.NewAccountID(),
	})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}
