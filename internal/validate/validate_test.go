package validate

import (
	"context"
	"errors"
	"testing"

	"contabile/internal/core"
	"contabile/internal/movementtype"
	"contabile/internal/readmodel"
	"contabile/internal/readmodel/memory"
	"contabile/internal/tagcategory"
)

func seedAccount(t *testing.T, store *memory.Store) core.AccountID {
	t.Helper()
	id := core.NewAccountID()
	err := store.UpsertAccount(context.Background(), readmodel.Account{AccountID: id, Name: "main"})
	if err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return id
}

func seedCategory(t *testing.T, store *memory.Store, name string, tags ...readmodel.Tag) core.TagCategoryID {
	t.Helper()
	id := core.NewTagCategoryID()
	err := store.UpsertTagCategory(context.Background(), readmodel.TagCategory{
		TagCategoryID: id,
		Name:          name,
		Tags:          tags,
	})
	if err != nil {
		t.Fatalf("seed category: %v", err)
	}
	return id
}

func TestMovementType_AccountMustExist(t *testing.T) {
	store := memory.New()
	interceptor := MovementType(store)

	unknown := core.NewAccountID()
	err := interceptor(context.Background(), movementtype.RegisterNewMovementType{
		MovementTypeID: core.NewMovementTypeID(),
		AccountID:      unknown,
	})

	var unknownAccount *UnknownAccountError
	if !errors.As(err, &unknownAccount) {
		t.Fatalf("expected UnknownAccountError, got %v", err)
	}
	if unknownAccount.AccountID != unknown {
		t.Fatalf("error account = %s", unknownAccount.AccountID)
	}
}

func TestMovementType_SourceAccountMustExist(t *testing.T) {
	store := memory.New()
	accountID := seedAccount(t, store)
	interceptor := MovementType(store)

	err := interceptor(context.Background(), movementtype.RegisterNewMovementType{
		MovementTypeID:  core.NewMovementTypeID(),
		AccountID:       accountID,
		SourceAccountID: core.NewAccountID(),
	})

	var unknownAccount *UnknownAccountError
	if !errors.As(err, &unknownAccount) {
		t.Fatalf("expected UnknownAccountError, got %v", err)
	}
}

func TestMovementType_TagsMustExist(t *testing.T) {
	store := memory.New()
	accountID := seedAccount(t, store)
	knownTag := readmodel.Tag{TagID: core.NewTagID(), Name: "food"}
	seedCategory(t, store, "expenses", knownTag)
	interceptor := MovementType(store)

	t.Run("known tags pass", func(t *testing.T) {
		err := interceptor(context.Background(), movementtype.RegisterNewMovementType{
			MovementTypeID: core.NewMovementTypeID(),
			AccountID:      accountID,
			TagIDs:         []core.TagID{knownTag.TagID},
		})
		if err != nil {
			t.Fatalf("interceptor: %v", err)
		}
	})

	t.Run("unknown tag rejected", func(t *testing.T) {
		err := interceptor(context.Background(), movementtype.RegisterNewMovementType{
			MovementTypeID: core.NewMovementTypeID(),
			AccountID:      accountID,
			TagIDs:         []core.TagID{knownTag.TagID, core.NewTagID()},
		})
		var unknownTag *UnknownTagError
		if !errors.As(err, &unknownTag) {
			t.Fatalf("expected UnknownTagError, got %v", err)
		}
	})
}

func TestMovementType_IgnoresOtherCommands(t *testing.T) {
	store := memory.New()
	interceptor := MovementType(store)

	err := interceptor(context.Background(), tagcategory.AddNewTagToNewCategory{
		TagCategoryID: core.NewTagCategoryID(),
	})
	if err != nil {
		t.Fatalf("interceptor: %v", err)
	}
}

func TestTagCategory_NewCategory(t *testing.T) {
	store := memory.New()
	existing := readmodel.Tag{TagID: core.NewTagID(), Name: "food"}
	existingID := seedCategory(t, store, "expenses", existing)
	interceptor := TagCategory(store)
	ctx := context.Background()

	t.Run("fresh category and tag pass", func(t *testing.T) {
		err := interceptor(ctx, tagcategory.AddNewTagToNewCategory{
			TagCategoryID: core.NewTagCategoryID(),
			Name:          "income",
			Tag:           tagcategory.Tag{TagID: core.NewTagID(), Name: "salary"},
		})
		if err != nil {
			t.Fatalf("interceptor: %v", err)
		}
	})

	t.Run("duplicate category id rejected", func(t *testing.T) {
		err := interceptor(ctx, tagcategory.AddNewTagToNewCategory{
			TagCategoryID: existingID,
			Name:          "income",
			Tag:           tagcategory.Tag{TagID: core.NewTagID(), Name: "salary"},
		})
		var dup *TagCategoryAlreadyExistsError
		if !errors.As(err, &dup) {
			t.Fatalf("expected TagCategoryAlreadyExistsError, got %v", err)
		}
	})

	t.Run("duplicate category name rejected", func(t *testing.T) {
		err := interceptor(ctx, tagcategory.AddNewTagToNewCategory{
			TagCategoryID: core.NewTagCategoryID(),
			Name:          "expenses",
			Tag:           tagcategory.Tag{TagID: core.NewTagID(), Name: "salary"},
		})
		var dup *TagCategoryAlreadyExistsError
		if !errors.As(err, &dup) {
			t.Fatalf("expected TagCategoryAlreadyExistsError, got %v", err)
		}
	})

	t.Run("duplicate tag name in another category rejected", func(t *testing.T) {
		err := interceptor(ctx, tagcategory.AddNewTagToNewCategory{
			TagCategoryID: core.NewTagCategoryID(),
			Name:          "income",
			Tag:           tagcategory.Tag{TagID: core.NewTagID(), Name: "food"},
		})
		var dup *TagAlreadyExistsError
		if !errors.As(err, &dup) {
			t.Fatalf("expected TagAlreadyExistsError, got %v", err)
		}
	})
}

func TestTagCategory_ExistingCategory(t *testing.T) {
	store := memory.New()
	existing := readmodel.Tag{TagID: core.NewTagID(), Name: "food"}
	categoryID := seedCategory(t, store, "expenses", existing)
	interceptor := TagCategory(store)
	ctx := context.Background()

	t.Run("unknown category rejected", func(t *testing.T) {
		err := interceptor(ctx, tagcategory.AddNewTagToExistingCategory{
			TagCategoryID: core.NewTagCategoryID(),
			Tag:           tagcategory.Tag{TagID: core.NewTagID(), Name: "transport"},
		})
		var unknown *UnknownTagCategoryError
		if !errors.As(err, &unknown) {
			t.Fatalf("expected UnknownTagCategoryError, got %v", err)
		}
	})

	t.Run("duplicate tag id rejected", func(t *testing.T) {
		err := interceptor(ctx, tagcategory.AddNewTagToExistingCategory{
			TagCategoryID: categoryID,
			Tag:           tagcategory.Tag{TagID: existing.TagID, Name: "transport"},
		})
		var dup *TagAlreadyExistsError
		if !errors.As(err, &dup) {
			t.Fatalf("expected TagAlreadyExistsError, got %v", err)
		}
	})

	t.Run("fresh tag passes", func(t *testing.T) {
		err := interceptor(ctx, tagcategory.AddNewTagToExistingCategory{
			TagCategoryID: categoryID,
			Tag:           tagcategory.Tag{TagID: core.NewTagID(), Name: "transport"},
		})
		if err != nil {
			t.Fatalf("interceptor: %v", err)
		}
	})
}
