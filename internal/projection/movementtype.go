package projection

import (
	"context"
	"fmt"

	"contabile/internal/eventstore"
	"contabile/internal/movementtype"
	"contabile/internal/readmodel"
)

// MovementTypeProjection inserts movement type rows. Rows are immutable
// after creation.
type MovementTypeProjection struct {
	store readmodel.MovementTypeStore
}

func NewMovementTypeProjection(store readmodel.MovementTypeStore) *MovementTypeProjection {
	return &MovementTypeProjection{store: store}
}

func (p *MovementTypeProjection) HandleEvent(ctx context.Context, ev eventstore.Event) error {
	e, ok := ev.Data.(*movementtype.NewMovementTypeRegistered)
	if !ok {
		return nil
	}
	err := p.store.UpsertMovementType(ctx, readmodel.MovementType{
		MovementTypeID:  e.MovementTypeID,
		Action:          e.Action,
		AccountID:       e.AccountID,
		SourceAccountID: e.SourceAccountID,
		Description:     e.Description,
		Notes:           e.Notes,
		TagIDs:          e.TagIDs,
	})
	if err != nil {
		return fmt.Errorf("project movement type: %w", err)
	}
	return nil
}
