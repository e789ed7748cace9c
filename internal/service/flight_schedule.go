package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"flight-board/internal/domain"
)

type route struct {
	airline string
	code    string
	airport string
}

var routes = []route{
	{"American", "AA", "Dallas/Fort Worth"},
	{"Lufthansa", "LH", "Frankfurt"},
	{"Delta", "DL", "Atlanta"},
	{"Air France", "AF", "Paris"},
	{"United", "UA", "Chicago"},
	{"KLM", "KL", "Amsterdam"},
	{"Southwest", "WN", "Denver"},
	{"Iberia", "IB", "Madrid"},
	{"JetBlue", "B6", "Boston"},
	{"British Airways", "BA", "London"},
	{"Alaska", "AS", "Seattle"},
}

const slotInterval = 20 * time.Minute

// GenerateFlights builds a deterministic board of count flights centred on now.
// Arrivals and departures alternate; roughly a third of the day lies in the past.
// IDs depend only on the airline, number and scheduled time, so regenerating the
// same board yields the same ids.
func GenerateFlights(now time.Time, count int) []domain.Flight {
	now = now.UTC()
	start := now.Truncate(time.Hour).Add(-time.Duration(count/3) * slotInterval)

	flights := make([]domain.Flight, 0, count)
	for i := 0; i < count; i++ {
		r := routes[i%len(routes)]
		scheduled := start.Add(time.Duration(i) * slotInterval)

		f := domain.Flight{
			Airline:      r.airline,
			Number:       fmt.Sprintf("%s%d", r.code, 100+i*37%900),
			Direction:    domain.DirectionArrival,
			OtherAirport: r.airport,
			Scheduled:    scheduled,
			Expected:     scheduled,
		}
		if i%2 == 1 {
			f.Direction = domain.DirectionDeparture
			f.Gate = fmt.Sprintf("%c%d", 'A'+rune(i%4), 1+i%20)
		}

		switch {
		case i%7 == 3:
			f.Status = domain.FlightStatusCancelled
		case i%5 == 2:
			f.Status = domain.FlightStatusDelayed
			f.Expected = scheduled.Add(time.Duration(15+i%4*10) * time.Minute)
		default:
			f.Status = domain.FlightStatusOnTime
		}
		if f.Status != domain.FlightStatusCancelled && !f.Expected.After(now) {
			if f.Direction == domain.DirectionArrival {
				f.Status = domain.FlightStatusLanded
			} else {
				f.Status = domain.FlightStatusDeparted
			}
		}

		f.ID = uuid.NewSHA1(uuid.NameSpaceURL,
			[]byte(fmt.Sprintf("flight:%s:%s:%s", r.code, f.Number, scheduled.Format(time.RFC3339))))
		flights = append(flights, f)
	}
	return flights
}
