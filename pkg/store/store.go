package store

import (
	"context"
	"errors"
	"fmt"

	"sparkbytesservice/pkg/models"
)

var (
	// ErrNotFound is returned when a record does not exist or when the
	// caller does not own it. The two cases are deliberately
	// indistinguishable so an event's existence never leaks to non-owners.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidEvent is returned when required event fields are missing.
	ErrInvalidEvent = errors.New("store: invalid event")
)

// EventParams carries the caller-supplied event fields. Coordinates are
// pointers so an absent coordinate is distinguishable from zero.
type EventParams struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Location      string   `json:"location"`
	BuildingIndex string   `json:"building_index"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	Status        string   `json:"status"`
}

// UserStore persists identity records. UpsertUser is the only write path
// used at sign-in; UpdateDietaryPreferences is the single user-editable field.
type UserStore interface {
	// UpsertUser inserts a user keyed by email or, on conflict, overwrites
	// the name only. Dietary preferences are never touched by an upsert.
	UpsertUser(ctx context.Context, email, name string) (models.User, error)
	GetUser(ctx context.Context, email string) (models.User, error)
	UpdateDietaryPreferences(ctx context.Context, email string, prefs []string) (models.User, error)
}

// EventStore persists event records. Every read is scoped to an owner and
// every mutation carries the owner in its predicate; there is no unscoped
// access path.
type EventStore interface {
	// ListByOwner returns the owner's events ordered by created_at
	// descending. No events is an empty slice, not an error.
	ListByOwner(ctx context.Context, owner string) ([]models.Event, error)
	GetEvent(ctx context.Context, id, owner string) (models.Event, error)
	CreateEvent(ctx context.Context, owner string, params EventParams) (models.Event, error)
	UpdateEvent(ctx context.Context, id, owner string, params EventParams) (models.Event, error)
	// DeleteEvent permanently removes the record. There is no soft delete.
	DeleteEvent(ctx context.Context, id, owner string) error
}

// Store is the full persistence surface of the service.
type Store interface {
	UserStore
	EventStore
}

// DefaultStatus is assigned to newly created events. Status is otherwise an
// opaque tag owned by the product; the store defines no transitions.
const DefaultStatus = "active"

func validateEventParams(p EventParams) error {
	switch {
	case p.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	case p.Location == "":
		return fmt.Errorf("%w: location is required", ErrInvalidEvent)
	case p.BuildingIndex == "":
		return fmt.Errorf("%w: building_index is required", ErrInvalidEvent)
	case p.Latitude == nil || p.Longitude == nil:
		return fmt.Errorf("%w: coordinates are required", ErrInvalidEvent)
	}
	return nil
}
