package events

import (
	"context"
	"errors"
	"time"

	"github.com/eventradar/server/internal/geo"
)

var ErrNotFound = errors.New("event not found")

// Event is an event record anchored to a WGS84 point.
type Event struct {
	ID          string
	Title       string
	Description string
	Location    geo.Point
	Datetime    time.Time
	CategoryID  int64
	CreatedBy   *string
	CreatedAt   time.Time
}

type CreateParams struct {
	ID          string
	Title       string
	Description string
	Location    geo.Point
	Datetime    time.Time
	CategoryID  int64
	CreatedBy   *string
}

// UpdateParams is a COALESCE-style partial update: nil fields keep their
// stored value. CreatedAt is never updatable.
type UpdateParams struct {
	Title       *string
	Description *string
	Location    *geo.Point
	Datetime    *time.Time
	CategoryID  *int64
	CreatedBy   *string
}

// Repository is the event store contract.
type Repository interface {
	// List returns all events. Ordering is not part of the contract.
	List(ctx context.Context) ([]Event, error)

	// GetByID returns ErrNotFound when no event has the id.
	GetByID(ctx context.Context, id string) (*Event, error)

	// Create persists a new event. CreatedAt is assigned by the store,
	// exactly once.
	Create(ctx context.Context, params CreateParams) (*Event, error)

	// Update merges the supplied fields into the stored record and returns
	// the full updated record, or ErrNotFound.
	Update(ctx context.Context, id string, params UpdateParams) (*Event, error)

	// Delete removes the record permanently and returns it as it existed
	// immediately before deletion, or ErrNotFound.
	Delete(ctx context.Context, id string) (*Event, error)

	// SearchWithin returns all events whose location lies within radius of
	// center. The radius unit is degrees: the column is geometry(Point, 4326)
	// and the predicate is ST_DWithin on that geometry. Zero matches is a
	// successful empty result.
	SearchWithin(ctx context.Context, center geo.Point, radius float64) ([]Event, error)
}
