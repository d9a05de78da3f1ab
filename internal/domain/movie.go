package domain

import (
	"context"
	"time"
)

type Movie struct {
	ID              int64
	Title           string
	DurationMinutes int
	Description     string
	CreatedAt       time.Time
}

type MovieRepository interface {
	GetAll(ctx context.Context) ([]Movie, error)
	GetByID(ctx context.Context, id int64) (*Movie, error)
	Create(ctx context.Context, movie *Movie) error
	Delete(ctx context.Context, id int64) error
}
