package projection

import (
	"context"
	"fmt"

	"contabile/internal/eventstore"
	"contabile/internal/readmodel"
	"contabile/internal/tagcategory"
)

// TagCategoryProjection keeps the tag category view in sync. Tag
// appends are id-keyed inserts, so concurrent or replayed appends
// cannot lose or duplicate tags.
type TagCategoryProjection struct {
	store readmodel.TagCategoryStore
}

func NewTagCategoryProjection(store readmodel.TagCategoryStore) *TagCategoryProjection {
	return &TagCategoryProjection{store: store}
}

func (p *TagCategoryProjection) HandleEvent(ctx context.Context, ev eventstore.Event) error {
	switch e := ev.Data.(type) {
	case *tagcategory.NewTagAddedToNewCategory:
		err := p.store.UpsertTagCategory(ctx, readmodel.TagCategory{
			TagCategoryID: e.TagCategoryID,
			Name:          e.Name,
			Notes:         e.Notes,
			Tags:          []readmodel.Tag{{TagID: e.Tag.TagID, Name: e.Tag.Name, Notes: e.Tag.Notes}},
		})
		if err != nil {
			return fmt.Errorf("project new tag category: %w", err)
		}
		return nil

	case *tagcategory.NewTagAddedToExistingCategory:
		err := p.store.AppendTag(ctx, e.TagCategoryID, readmodel.Tag{
			TagID: e.Tag.TagID,
			Name:  e.Tag.Name,
			Notes: e.Tag.Notes,
		})
		if err != nil {
			return fmt.Errorf("project tag append: %w", err)
		}
		return nil

	default:
		return nil
	}
}
