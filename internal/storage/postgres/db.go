package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() *UserRepository {
	return &UserRepository{pool: r.pool}
}

func (r *Repository) Events() *EventRepository {
	return &EventRepository{pool: r.pool}
}

type UserRepository struct {
	pool *pgxpool.Pool
}

type EventRepository struct {
	pool *pgxpool.Pool
}
