// Package tagcategory models a named group of tags. A category is
// created together with its first tag and only ever grows; global
// uniqueness of tag ids and names across categories is enforced by
// pre-validation, not here.
package tagcategory

import (
	"errors"
	"fmt"
	"maps"

	"github.com/google/uuid"

	"contabile/internal/commandbus"
	"contabile/internal/core"
	"contabile/internal/eventstore"
)

const AggregateType = "tag_category"

const (
	AddNewTagToNewCategoryCommand      = "add_new_tag_to_new_category"
	AddNewTagToExistingCategoryCommand = "add_new_tag_to_existing_category"
)

const (
	NewTagAddedToNewCategoryEvent      = "new_tag_added_to_new_category"
	NewTagAddedToExistingCategoryEvent = "new_tag_added_to_existing_category"
)

var (
	ErrAlreadyExists = errors.New("tag category: already exists")
	ErrNotFound      = errors.New("tag category: does not exist")
)

// Tag is one label inside a category.
type Tag struct {
	TagID core.TagID `json:"tag_id"`
	Name  string     `json:"name"`
	Notes string     `json:"notes,omitempty"`
}

// Command is the closed set of commands addressed to a tag category.
type Command interface {
	AggregateID() uuid.UUID
	AggregateType() string
	CommandType() string
	isTagCategoryCommand()
}

// AddNewTagToNewCategory creates the category with its first tag.
type AddNewTagToNewCategory struct {
	TagCategoryID core.TagCategoryID
	Name          string
	Notes         string
	Tag           Tag
}

func (c AddNewTagToNewCategory) AggregateID() uuid.UUID { return c.TagCategoryID.UUID() }
func (c AddNewTagToNewCategory) AggregateType() string  { return AggregateType }
func (c AddNewTagToNewCategory) CommandType() string    { return AddNewTagToNewCategoryCommand }
func (c AddNewTagToNewCategory) isTagCategoryCommand()  {}

// AddNewTagToExistingCategory appends one tag to an existing category.
type AddNewTagToExistingCategory struct {
	TagCategoryID core.TagCategoryID
	Tag           Tag
}

func (c AddNewTagToExistingCategory) AggregateID() uuid.UUID { return c.TagCategoryID.UUID() }
func (c AddNewTagToExistingCategory) AggregateType() string  { return AggregateType }
func (c AddNewTagToExistingCategory) CommandType() string {
	return AddNewTagToExistingCategoryCommand
}
func (c AddNewTagToExistingCategory) isTagCategoryCommand() {}

// NewTagAddedToNewCategory creates the category with its first tag.
type NewTagAddedToNewCategory struct {
	TagCategoryID core.TagCategoryID `json:"tag_category_id"`
	Name          string             `json:"name"`
	Notes         string             `json:"notes,omitempty"`
	Tag           Tag                `json:"tag"`
}

func (NewTagAddedToNewCategory) EventType() string { return NewTagAddedToNewCategoryEvent }

// NewTagAddedToExistingCategory appends one tag.
type NewTagAddedToExistingCategory struct {
	TagCategoryID core.TagCategoryID `json:"tag_category_id"`
	Tag           Tag                `json:"tag"`
}

func (NewTagAddedToExistingCategory) EventType() string { return NewTagAddedToExistingCategoryEvent }

// RegisterEvents adds the tag category events to the store registry.
func RegisterEvents(r *eventstore.Registry) {
	r.Register(NewTagAddedToNewCategoryEvent, func() eventstore.EventData { return &NewTagAddedToNewCategory{} })
	r.Register(NewTagAddedToExistingCategoryEvent, func() eventstore.EventData { return &NewTagAddedToExistingCategory{} })
}

// State is the folded category state. Tags is keyed by tag id; the map
// is copied on every fold so previous states stay untouched.
type State struct {
	Exists bool
	Name   string
	Tags   map[core.TagID]Tag
}

func Apply(s State, ev eventstore.EventData) State {
	switch e := ev.(type) {
	case *NewTagAddedToNewCategory:
		s.Exists = true
		s.Name = e.Name
		s.Tags = map[core.TagID]Tag{e.Tag.TagID: e.Tag}
	case *NewTagAddedToExistingCategory:
		tags := make(map[core.TagID]Tag, len(s.Tags)+1)
		maps.Copy(tags, s.Tags)
		tags[e.Tag.TagID] = e.Tag
		s.Tags = tags
	}
	return s
}

func Handle(s State, cmd Command) ([]eventstore.EventData, error) {
	switch c := cmd.(type) {
	case AddNewTagToNewCategory:
		if s.Exists {
			return nil, ErrAlreadyExists
		}
		return []eventstore.EventData{&NewTagAddedToNewCategory{
			TagCategoryID: c.TagCategoryID,
			Name:          c.Name,
			Notes:         c.Notes,
			Tag:           c.Tag,
		}}, nil

	case AddNewTagToExistingCategory:
		if !s.Exists {
			return nil, ErrNotFound
		}
		return []eventstore.EventData{&NewTagAddedToExistingCategory{
			TagCategoryID: c.TagCategoryID,
			Tag:           c.Tag,
		}}, nil

	default:
		return nil, fmt.Errorf("tag category: no handler for command %q", cmd.CommandType())
	}
}

// Definition wires the tag category aggregate into the command bus.
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
				return nil, fmt.Errorf("tag category: unexpected command type %T", cmd)
			}
			return Handle(state.(State), c)
		},
	}
}
