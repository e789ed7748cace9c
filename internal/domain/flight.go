package domain

import (
	"time"

	"github.com/google/uuid"
)

type Direction string

const (
	DirectionArrival   Direction = "arrival"
	DirectionDeparture Direction = "departure"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionArrival || d == DirectionDeparture
}

type FlightStatus string

const (
	FlightStatusOnTime    FlightStatus = "ontime"
	FlightStatusDelayed   FlightStatus = "delayed"
	FlightStatusCancelled FlightStatus = "cancelled"
	FlightStatusLanded    FlightStatus = "landed"
	FlightStatusDeparted  FlightStatus = "departed"
)

// Flight is a single row on the arrivals or departures board.
type Flight struct {
	ID           uuid.UUID
	Airline      string
	Number       string
	Direction    Direction
	OtherAirport string
	Status       FlightStatus
	Scheduled    time.Time
	Expected     time.Time
	Gate         string
}

// StatusText is the human readable status shown on the board.
func (f Flight) StatusText() string {
	switch f.Status {
	case FlightStatusOnTime:
		return "On Time"
	case FlightStatusDelayed:
		return "Delayed until " + f.Expected.Format("15:04")
	case FlightStatusCancelled:
		return "Cancelled"
	case FlightStatusLanded:
		return "Landed at " + f.Expected.Format("15:04")
	case FlightStatusDeparted:
		return "Departed at " + f.Expected.Format("15:04")
	default:
		return "Unknown"
	}
}

// CanCheckIn reports whether passengers may still check in for the flight.
func (f Flight) CanCheckIn() bool {
	return f.Direction == DirectionDeparture &&
		(f.Status == FlightStatusOnTime || f.Status == FlightStatusDelayed)
}

// CanRebook reports whether the flight offers the rebook action.
func (f Flight) CanRebook() bool {
	return f.Status == FlightStatusCancelled
}

// CheckIn is issued when a passenger checks in for a departing flight.
type CheckIn struct {
	ID      uuid.UUID
	Airline string
	Flight  string
}
