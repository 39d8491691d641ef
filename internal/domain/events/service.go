package events

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/eventradar/server/internal/domain/ids"
	"github.com/eventradar/server/internal/geo"
	"github.com/rs/zerolog"
)

// ValidationError reports a user-correctable input problem.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "events").Logger(),
	}
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	if err := ids.ValidateULID(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// CreateInput carries the wire-level creation fields. Location is the WKT
// textual form POINT(lon lat); CreatedBy comes from the verified principal,
// never from the request body.
type CreateInput struct {
	Title       string
	Description string
	Location    string
	Datetime    time.Time
	CategoryID  int64
	CreatedBy   *string
}

func (s *Service) Create(ctx context.Context, input CreateInput) (*Event, error) {
	if input.Title == "" {
		return nil, ValidationError{Field: "title", Message: "is required"}
	}
	if input.Datetime.IsZero() {
		return nil, ValidationError{Field: "datetime", Message: "is required"}
	}
	point, err := geo.ParsePoint(input.Location)
	if err != nil {
		return nil, ValidationError{Field: "location", Message: "must be a POINT(lon lat)"}
	}

	id, err := ids.NewULID()
	if err != nil {
		return nil, fmt.Errorf("mint event id: %w", err)
	}

	event, err := s.repo.Create(ctx, CreateParams{
		ID:          id,
		Title:       input.Title,
		Description: input.Description,
		Location:    point,
		Datetime:    input.Datetime,
		CategoryID:  input.CategoryID,
		CreatedBy:   input.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event_id", event.ID).
		Str("title", event.Title).
		Msg("event created")
	return event, nil
}

// UpdateInput mirrors UpdateParams at the wire level: nil means keep the
// stored value. Location, when present, is WKT text.
type UpdateInput struct {
	Title       *string
	Description *string
	Location    *string
	Datetime    *time.Time
	CategoryID  *int64
	CreatedBy   *string
}

func (s *Service) Update(ctx context.Context, id string, input UpdateInput) (*Event, error) {
	if err := ids.ValidateULID(id); err != nil {
		return nil, ErrNotFound
	}

	params := UpdateParams{
		Title:       input.Title,
		Description: input.Description,
		Datetime:    input.Datetime,
		CategoryID:  input.CategoryID,
		CreatedBy:   input.CreatedBy,
	}
	if input.Location != nil {
		point, err := geo.ParsePoint(*input.Location)
		if err != nil {
			return nil, ValidationError{Field: "location", Message: "must be a POINT(lon lat)"}
		}
		params.Location = &point
	}

	return s.repo.Update(ctx, id, params)
}

func (s *Service) Delete(ctx context.Context, id string) (*Event, error) {
	if err := ids.ValidateULID(id); err != nil {
		return nil, ErrNotFound
	}

	event, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event_id", event.ID).
		Msg("event deleted")
	return event, nil
}

// SearchRadius returns all events within radius of (lon, lat). The radius is
// in degrees, matching the geometry(Point, 4326) storage predicate. An empty
// result is a success, not an error.
func (s *Service) SearchRadius(ctx context.Context, lat, lon, radius float64) ([]Event, error) {
	if !isFinite(lat) || !isFinite(lon) || !isFinite(radius) {
		return nil, ValidationError{Message: "latitude, longitude and radius must be finite numbers"}
	}
	if radius < 0 {
		return nil, ValidationError{Field: "radius", Message: "must not be negative"}
	}
	center := geo.Point{Lon: lon, Lat: lat}
	if err := center.Validate(); err != nil {
		return nil, ValidationError{Message: err.Error()}
	}

	return s.repo.SearchWithin(ctx, center, radius)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
