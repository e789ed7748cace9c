package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"flight-board/internal/domain"
	"flight-board/internal/repository"
)

var (
	// ErrCheckInUnavailable is returned for arrivals and for departures that can no longer be checked in.
	ErrCheckInUnavailable = errors.New("check-in is not available for this flight")
	// ErrRebookUnavailable is the answer to every rebook request on a cancelled flight.
	ErrRebookUnavailable = errors.New("we cannot rebook this flight, please contact the airline to reschedule")
	// ErrRebookNotApplicable is returned when rebooking a flight that was not cancelled.
	ErrRebookNotApplicable = errors.New("only cancelled flights can be rebooked")
	// ErrInvalidDirection is returned for a board other than arrivals or departures.
	ErrInvalidDirection = errors.New("direction must be arrival or departure")
)

// FlightService coordinates the flight board backed by a repository.
type FlightService interface {
	Seed(ctx context.Context, count int) error
	Board(ctx context.Context, direction domain.Direction, hideCancelled bool) ([]domain.Flight, error)
	Flight(ctx context.Context, id uuid.UUID) (*domain.Flight, error)
	CheckIn(ctx context.Context, id uuid.UUID) (*domain.CheckIn, error)
	Rebook(ctx context.Context, id uuid.UUID) error
}

type flightService struct {
	flights repository.FlightRepository
	clock   clockwork.Clock
}

func NewFlightService(flights repository.FlightRepository, clock clockwork.Clock) FlightService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &flightService{
		flights: flights,
		clock:   clock,
	}
}

func (s *flightService) Seed(ctx context.Context, count int) error {
	if count < 0 {
		return fmt.Errorf("flight count must not be negative")
	}
	return s.flights.ReplaceAll(ctx, GenerateFlights(s.clock.Now(), count))
}

func (s *flightService) Board(ctx context.Context, direction domain.Direction, hideCancelled bool) ([]domain.Flight, error) {
	if !direction.Valid() {
		return nil, ErrInvalidDirection
	}
	return s.flights.List(ctx, repository.FlightFilter{
		Direction:     &direction,
		HideCancelled: hideCancelled,
	})
}

func (s *flightService) Flight(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	return s.flights.Get(ctx, id)
}

func (s *flightService) CheckIn(ctx context.Context, id uuid.UUID) (*domain.CheckIn, error) {
	flight, err := s.flights.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !flight.CanCheckIn() {
		return nil, ErrCheckInUnavailable
	}
	return &domain.CheckIn{
		ID:      uuid.New(),
		Airline: flight.Airline,
		Flight:  flight.Number,
	}, nil
}

func (s *flightService) Rebook(ctx context.Context, id uuid.UUID) error {
	flight, err := s.flights.Get(ctx, id)
	if err != nil {
		return err
	}
	if !flight.CanRebook() {
		return ErrRebookNotApplicable
	}
	return ErrRebookUnavailable
}
