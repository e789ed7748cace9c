package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"flight-board/internal/domain"
	"flight-board/internal/repository"
)

const createFlightsTable = `
CREATE TABLE IF NOT EXISTS flights (
	id TEXT PRIMARY KEY,
	airline TEXT NOT NULL,
	number TEXT NOT NULL,
	direction TEXT NOT NULL,
	other_airport TEXT NOT NULL,
	status TEXT NOT NULL,
	gate TEXT NOT NULL DEFAULT '',
	scheduled_at DATETIME NOT NULL,
	expected_at DATETIME NOT NULL
);
`

const selectFlightColumns = `SELECT id, airline, number, direction, other_airport, status, gate, scheduled_at, expected_at FROM flights`

type FlightRepository struct {
	db *sql.DB
}

func NewFlightRepository(db *sql.DB) repository.FlightRepository {
	return &FlightRepository{db: db}
}

func (r *FlightRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createFlightsTable); err != nil {
		return fmt.Errorf("create flights table: %w", err)
	}
	return nil
}

func (r *FlightRepository) ReplaceAll(ctx context.Context, flights []domain.Flight) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM flights`); err != nil {
		return fmt.Errorf("delete flights: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO flights (id, airline, number, direction, other_airport, status, gate, scheduled_at, expected_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert flight: %w", err)
	}
	defer stmt.Close()

	for _, f := range flights {
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		if _, err := stmt.ExecContext(ctx,
			f.ID.String(),
			f.Airline,
			f.Number,
			string(f.Direction),
			f.OtherAirport,
			string(f.Status),
			f.Gate,
			f.Scheduled.UTC(),
			f.Expected.UTC(),
		); err != nil {
			return fmt.Errorf("insert flight %s %s: %w", f.Airline, f.Number, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flights: %w", err)
	}
	return nil
}

func (r *FlightRepository) List(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Direction != nil {
		clauses = append(clauses, "direction = ?")
		args = append(args, string(*filter.Direction))
	}
	if filter.HideCancelled {
		clauses = append(clauses, "status <> ?")
		args = append(args, string(domain.FlightStatusCancelled))
	}

	query := selectFlightColumns
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY scheduled_at ASC, airline ASC, number ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	defer rows.Close()

	var flights []domain.Flight
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flights: %w", err)
	}
	return flights, nil
}

func (r *FlightRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	row := r.db.QueryRowContext(ctx, selectFlightColumns+` WHERE id = ?`, id.String())
	f, err := scanFlight(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrFlightNotFound
		}
		return nil, err
	}
	return f, nil
}

func scanFlight(row interface {
	Scan(dest ...any) error
}) (*domain.Flight, error) {
	var (
		f         domain.Flight
		id        string
		direction string
		status    string
		scheduled time.Time
		expected  time.Time
	)
	if err := row.Scan(
		&id,
		&f.Airline,
		&f.Number,
		&direction,
		&f.OtherAirport,
		&status,
		&f.Gate,
		&scheduled,
		&expected,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan flight: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse flight id %q: %w", id, err)
	}
	f.ID = parsed
	f.Direction = domain.Direction(direction)
	f.Status = domain.FlightStatus(status)
	f.Scheduled = scheduled.UTC()
	f.Expected = expected.UTC()
	return &f, nil
}
