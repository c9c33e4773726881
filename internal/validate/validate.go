// Package validate holds the command pre-validators. They run before a
// command reaches its aggregate and consult only the read model, so
// they are best-effort guards: the read model can lag the event log and
// a race is accepted.
package validate

import (
	"context"
	"fmt"

	"contabile/internal/commandbus"
	"contabile/internal/movementtype"
	"contabile/internal/readmodel"
	"contabile/internal/tagcategory"
)

// MovementType checks that every account and tag a movement type
// registration references exists in the read model.
func MovementType(store readmodel.Store) commandbus.Interceptor {
	return func(ctx context.Context, cmd commandbus.Command) error {
		c, ok := cmd.(movementtype.RegisterNewMovementType)
		if !ok {
			return nil
		}

		exists, err := store.AccountExists(ctx, c.AccountID)
		if err != nil {
			return fmt.Errorf("check account %s: %w", c.AccountID, err)
		}
		if !exists {
			return &UnknownAccountError{AccountID: c.AccountID}
		}

		if !c.SourceAccountID.IsZero() {
			exists, err := store.AccountExists(ctx, c.SourceAccountID)
			if err != nil {
				return fmt.Errorf("check source account %s: %w", c.SourceAccountID, err)
			}
			if !exists {
				return &UnknownAccountError{AccountID: c.SourceAccountID}
			}
		}

		for _, tagID := range c.TagIDs {
			exists, err := store.TagExists(ctx, tagID)
			if err != nil {
				return fmt.Errorf("check tag %s: %w", tagID, err)
			}
			if !exists {
				return &UnknownTagError{TagID: tagID}
			}
		}
		return nil
	}
}

// TagCategory checks category and tag uniqueness for both tag category
// commands. Tag ids and names must be unique across every category.
func TagCategory(store readmodel.Store) commandbus.Interceptor {
	return func(ctx context.Context, cmd commandbus.Command) error {
		switch c := cmd.(type) {
		case tagcategory.AddNewTagToNewCategory:
			exists, err := store.TagCategoryExists(ctx, c.TagCategoryID)
			if err != nil {
				return fmt.Errorf("check tag category %s: %w", c.TagCategoryID, err)
			}
			if !exists {
				exists, err = store.TagCategoryNameExists(ctx, c.Name)
				if err != nil {
					return fmt.Errorf("check tag category name %q: %w", c.Name, err)
				}
			}
			if exists {
				return &TagCategoryAlreadyExistsError{TagCategoryID: c.TagCategoryID, Name: c.Name}
			}
			return checkTagUnique(ctx, store, c.Tag)

		case tagcategory.AddNewTagToExistingCategory:
			exists, err := store.TagCategoryExists(ctx, c.TagCategoryID)
			if err != nil {
				return fmt.Errorf("check tag category %s: %w", c.TagCategoryID, err)
			}
			if !exists {
				return &UnknownTagCategoryError{TagCategoryID: c.TagCategoryID}
			}
			return checkTagUnique(ctx, store, c.Tag)

		default:
			return nil
		}
	}
}

func checkTagUnique(ctx context.Context, store readmodel.Store, tag tagcategory.Tag) error {
	exists, err := store.TagExists(ctx, tag.TagID)
	if err != nil {
		return fmt.Errorf("check tag %s: %w", tag.TagID, err)
	}
	if !exists {
		exists, err = store.TagNameExists(ctx, tag.Name)
		if err != nil {
			return fmt.Errorf("check tag name %q: %w", tag.Name, err)
		}
	}
	if exists {
		return &TagAlreadyExistsError{TagID: tag.TagID, Name: tag.Name}
	}
	return nil
}
