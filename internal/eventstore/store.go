package eventstore

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Store is the append-only event log. Appends for one aggregate id are
// totally ordered by version; the global sequence orders all events for
// tracking consumers.
type Store interface {
	// Append durably appends events for one aggregate. expectedVersion
	// is the version the caller folded state from; a mismatch fails
	// with ErrVersionConflict and nothing is written.
	Append(ctx context.Context, aggregateType string, aggregateID uuid.UUID, expectedVersion int64, events []EventData) ([]Event, error)

	// Load returns the full history of one aggregate id in version order.
	Load(ctx context.Context, aggregateID uuid.UUID) ([]Event, error)

	// ReadAfter returns up to limit events with GlobalSeq > afterSeq,
	// in global order.
	ReadAfter(ctx context.Context, afterSeq int64, limit int) ([]Event, error)
}

// ErrPositionClaimed is returned when a processing group's position is
// held by another live instance.
var ErrPositionClaimed = errors.New("eventstore: position claimed by another owner")

// PositionStore tracks how far each processing group has consumed the
// global log. A group's position must be claimed by exactly one owner
// before it can be read or advanced.
type PositionStore interface {
	// Claim takes ownership of a group's position and returns it.
	// Claiming a position already held by another owner fails with
	// ErrPositionClaimed. Claims are re-entrant for the same owner.
	Claim(ctx context.Context, group, owner string) (int64, error)

	// Save advances the group's position. The caller must hold the claim.
	Save(ctx context.Context, group, owner string, position int64) error

	// Reset moves the group's position back to the start of the log.
	// Fails with ErrPositionClaimed if another owner holds the claim.
	Reset(ctx context.Context, group, owner string) error

	// Release gives up the claim so another instance may take over.
	Release(ctx context.Context, group, owner string) error
}
