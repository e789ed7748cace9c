package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"flight-board/internal/domain"
)

// ErrFlightNotFound is returned when no flight matches the requested id.
var ErrFlightNotFound = errors.New("flight not found")

// FlightFilter narrows a board listing. A nil Direction lists both boards.
type FlightFilter struct {
	Direction     *domain.Direction
	HideCancelled bool
}

// FlightRepository exposes persistence operations for the flight board.
type FlightRepository interface {
	Init(ctx context.Context) error
	ReplaceAll(ctx context.Context, flights []domain.Flight) error
	List(ctx context.Context, filter FlightFilter) ([]domain.Flight, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Flight, error)
}
