// Package movementtype models a reusable movement template: a
// direction, an owning account, an optional source account and a set
// of default tags. Movement types are created once and never change.
package movementtype

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"contabile/internal/commandbus"
	"contabile/internal/core"
	"contabile/internal/eventstore"
)

const AggregateType = "movement_type"

const RegisterNewMovementTypeCommand = "register_new_movement_type"

const NewMovementTypeRegisteredEvent = "new_movement_type_registered"

var ErrAlreadyRegistered = errors.New("movement type: already registered")

// SameAccountError reports a registration whose source account equals
// the owning account.
type SameAccountError struct {
	AccountID core.AccountID
}

func (e *SameAccountError) Error() string {
	return fmt.Sprintf("movement type: account and source account cannot both be %s", e.AccountID)
}

// Command is the closed set of commands addressed to a movement type.
type Command interface {
	AggregateID() uuid.UUID
	AggregateType() string
	CommandType() string
	isMovementTypeCommand()
}

// RegisterNewMovementType creates the movement type. SourceAccountID is
// optional; when set it must differ from AccountID.
type RegisterNewMovementType struct {
	MovementTypeID  core.MovementTypeID
	Action          core.MovementAction
	AccountID       core.AccountID
	SourceAccountID core.AccountID
	Description     string
	Notes           string
	TagIDs          []core.TagID
}

func (c RegisterNewMovementType) AggregateID() uuid.UUID { return c.MovementTypeID.UUID() }
func (c RegisterNewMovementType) AggregateType() string  { return AggregateType }
func (c RegisterNewMovementType) CommandType() string    { return RegisterNewMovementTypeCommand }
func (c RegisterNewMovementType) isMovementTypeCommand() {}

// NewMovementTypeRegistered carries the full immutable definition.
type NewMovementTypeRegistered struct {
	MovementTypeID  core.MovementTypeID `json:"movement_type_id"`
	Action          core.MovementAction `json:"action"`
	AccountID       core.AccountID      `json:"account_id"`
	SourceAccountID core.AccountID      `json:"source_account_id,omitempty"`
	Description     string              `json:"description"`
	Notes           string              `json:"notes,omitempty"`
	TagIDs          []core.TagID        `json:"tag_ids"`
}

func (NewMovementTypeRegistered) EventType() string { return NewMovementTypeRegisteredEvent }

// RegisterEvents adds the movement type event to the store registry.
func RegisterEvents(r *eventstore.Registry) {
	r.Register(NewMovementTypeRegisteredEvent, func() eventstore.EventData { return &NewMovementTypeRegistered{} })
}

// State is the folded movement type state. Only existence matters; the
// definition is immutable after creation.
type State struct {
	Registered bool
}

func Apply(s State, ev eventstore.EventData) State {
	if _, ok := ev.(*NewMovementTypeRegistered); ok {
		s.Registered = true
	}
	return s
}

func Handle(s State, cmd Command) ([]eventstore.EventData, error) {
	switch c := cmd.(type) {
	case RegisterNewMovementType:
		if s.Registered {
			return nil, ErrAlreadyRegistered
		}
		if !c.SourceAccountID.IsZero() && c.SourceAccountID == c.AccountID {
			return nil, &SameAccountError{AccountID: c.AccountID}
		}
		return []eventstore.EventData{&NewMovementTypeRegistered{
			MovementTypeID:  c.MovementTypeID,
			Action:          c.Action,
			AccountID:       c.AccountID,
			SourceAccountID: c.SourceAccountID,
			Description:     c.Description,
			Notes:           c.Notes,
			TagIDs:          c.TagIDs,
		}}, nil

	default:
		return nil, fmt.Errorf("movement type: no handler for command %q", cmd.CommandType())
	}
}

// Definition wires the movement type aggregate into the command bus.
func Definition() commandbus.AggregateDefinition {
	return commandbus.AggregateDefinition{
		Type:     AggregateType,
		NewState: func() any { return State{} },
		Apply: func(state any, ev eventstore.EventData) any {
			return Apply(state.(State), ev)
		},
		Handle: func(state any, cmd commandbus.Command) ([]eventstore.EventData, error) {
			c, ok := cmd.(Command)
			if !ok {
				return nil, fmt.Errorf("movement type: unexpected command type %T", cmd)
			}
			return Handle(state.(State), c)
		},
	}
}
