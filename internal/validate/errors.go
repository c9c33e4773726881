package validate

import (
	"fmt"

	"contabile/internal/core"
)

// UnknownAccountError reports a command referencing an account the read
// model has never seen.
type UnknownAccountError struct {
	AccountID core.AccountID
}

func (e *UnknownAccountError) Error() string {
	return fmt.Sprintf("unknown account %s", e.AccountID)
}

// UnknownTagError reports a command referencing a tag the read model
// has never seen.
type UnknownTagError struct {
	TagID core.TagID
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown tag %s", e.TagID)
}

// UnknownTagCategoryError reports a tag append to a category the read
// model has never seen.
type UnknownTagCategoryError struct {
	TagCategoryID core.TagCategoryID
}

func (e *UnknownTagCategoryError) Error() string {
	return fmt.Sprintf("unknown tag category %s", e.TagCategoryID)
}

// TagCategoryAlreadyExistsError reports a new-category command whose id
// or name is already taken.
type TagCategoryAlreadyExistsError struct {
	TagCategoryID core.TagCategoryID
	Name          string
}

func (e *TagCategoryAlreadyExistsError) Error() string {
	return fmt.Sprintf("tag category %s (%q) already exists", e.TagCategoryID, e.Name)
}

// TagAlreadyExistsError reports a tag whose id or name is already taken
// by any category. Tag ids and names are globally unique.
type TagAlreadyExistsError struct {
	TagID core.TagID
	Name  string
}

func (e *TagAlreadyExistsError) Error() string {
	return fmt.Sprintf("tag %s (%q) already exists", e.TagID, e.Name)
}
