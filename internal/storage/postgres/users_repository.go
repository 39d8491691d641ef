package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventradar/server/internal/domain/users"
	"github.com/eventradar/server/internal/geo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var _ users.Repository = (*UserRepository)(nil)

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id::text, name, email, password_hash, ST_AsText(location), created_at
  FROM users
 WHERE email = $1
 LIMIT 1
`, email)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Insert(ctx context.Context, params users.InsertParams) (*users.User, error) {
	var lon, lat *float64
	if params.Location != nil {
		lon, lat = &params.Location.Lon, &params.Location.Lat
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO users (id, name, email, password_hash, location, created_at)
VALUES ($1::uuid, $2, $3, $4,
        CASE WHEN $5::float8 IS NULL THEN NULL
             ELSE ST_SetSRID(ST_MakePoint($5, $6), 4326) END,
        now())
RETURNING id::text, name, email, password_hash, ST_AsText(location), created_at
`, params.ID, params.Name, params.Email, params.PasswordHash, lon, lat)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		user      users.User
		location  *string
		createdAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&location,
		&createdAt,
	); err != nil {
		return nil, err
	}
	if location != nil {
		point, err := geo.ParsePoint(*location)
		if err != nil {
			return nil, fmt.Errorf("decode user location: %w", err)
		}
		user.Location = &point
	}
	if createdAt.Valid {
		user.CreatedAt = createdAt.Time
	}
	return &user, nil
}
