package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventradar/server/internal/domain/events"
	"github.com/eventradar/server/internal/geo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ events.Repository = (*EventRepository)(nil)

// eventColumns is the shared select list. The point is rendered with
// ST_AsText so the domain sees the WKT form POINT(lon lat).
const eventColumns = `id, title, description, ST_AsText(location), datetime, category_id, created_by::text, created_at`

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 ORDER BY created_at, id
`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (*events.Event, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE id = $1
`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams) (*events.Event, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO events (id, title, description, location, datetime, category_id, created_by, created_at)
VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), $6, $7, $8::uuid, now())
RETURNING `+eventColumns+`
`,
		params.ID,
		params.Title,
		params.Description,
		params.Location.Lon,
		params.Location.Lat,
		params.Datetime,
		params.CategoryID,
		params.CreatedBy,
	)

	event, err := scanEvent(row)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

// Update merges supplied fields over stored values. created_at is deliberately
// absent from the SET list: it is assigned once, at creation.
func (r *EventRepository) Update(ctx context.Context, id string, params events.UpdateParams) (*events.Event, error) {
	var lon, lat *float64
	if params.Location != nil {
		lon, lat = &params.Location.Lon, &params.Location.Lat
	}

	row := r.pool.QueryRow(ctx, `
UPDATE events
   SET title       = COALESCE($1, title),
       description = COALESCE($2, description),
       location    = CASE WHEN $3::float8 IS NULL THEN location
                          ELSE ST_SetSRID(ST_MakePoint($3, $4), 4326) END,
       datetime    = COALESCE($5, datetime),
       category_id = COALESCE($6, category_id),
       created_by  = COALESCE($7::uuid, created_by)
 WHERE id = $8
RETURNING `+eventColumns+`
`,
		params.Title,
		params.Description,
		lon,
		lat,
		params.Datetime,
		params.CategoryID,
		params.CreatedBy,
		id,
	)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) (*events.Event, error) {
	row := r.pool.QueryRow(ctx, `
DELETE FROM events
 WHERE id = $1
RETURNING `+eventColumns+`
`, id)

	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("delete event: %w", err)
	}
	return event, nil
}

// SearchWithin uses ST_DWithin on geometry(Point, 4326), so radius is in
// degrees. Axis order is (lon, lat) as everywhere else.
func (r *EventRepository) SearchWithin(ctx context.Context, center geo.Point, radius float64) ([]events.Event, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326), $3)
`, center.Lon, center.Lat, radius)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]events.Event, error) {
	items := make([]events.Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		items = append(items, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return items, nil
}

func scanEvent(row pgx.Row) (*events.Event, error) {
	var (
		event       events.Event
		description *string
		location    string
		datetime    pgtype.Timestamptz
		createdAt   pgtype.Timestamptz
	)
	if err := row.Scan(
		&event.ID,
		&event.Title,
		&description,
		&location,
		&datetime,
		&event.CategoryID,
		&event.CreatedBy,
		&createdAt,
	); err != nil {
		return nil, err
	}

	event.Description = derefString(description)
	point, err := geo.ParsePoint(location)
	if err != nil {
		return nil, fmt.Errorf("decode event location: %w", err)
	}
	event.Location = point
	if datetime.Valid {
		event.Datetime = datetime.Time
	}
	if createdAt.Valid {
		event.CreatedAt = createdAt.Time
	}
	return &event, nil
}
