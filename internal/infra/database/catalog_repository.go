package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

type PackageRepository struct {
	DB *sql.DB
}

func NewPackageRepository(db *sql.DB) *PackageRepository {
	return &PackageRepository{DB: db}
}

func (r *PackageRepository) FindByID(ctx context.Context, id string) (*entity.Package, error) {
	query := `SELECT id, event_id, name, base_price, active FROM packages WHERE id = $1`

	var p entity.Package
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, id).Scan(&p.ID, &p.EventID, &p.Name, &p.BasePrice, &p.Active)
	if errors.Is(err, sql.ErrNoRows) || isInvalidUUID(err) {
		return nil, entity.ErrPackageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find package: %w", err)
	}
	return &p, nil
}

func (r *PackageRepository) ListActiveByEvents(ctx context.Context, eventIDs []string) ([]entity.Package, error) {
	if len(eventIDs) == 0 {
		return []entity.Package{}, nil
	}

	query := `
		SELECT id, event_id, name, base_price, active
		FROM packages
		WHERE event_id = ANY($1::uuid[]) AND active
		ORDER BY base_price ASC, name ASC
	`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	packages := []entity.Package{}
	for rows.Next() {
		var p entity.Package
		if err := rows.Scan(&p.ID, &p.EventID, &p.Name, &p.BasePrice, &p.Active); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		packages = append(packages, p)
	}
	return packages, rows.Err()
}

const eventColumns = `id, name, location, start_date, end_date, featured, active`

func scanEvent(row rowScanner) (*entity.Event, error) {
	var e entity.Event
	if err := row.Scan(&e.ID, &e.Name, &e.Location, &e.StartDate, &e.EndDate, &e.Featured, &e.Active); err != nil {
		return nil, err
	}
	e.StartDate = e.StartDate.UTC()
	e.EndDate = e.EndDate.UTC()
	return &e, nil
}

type EventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{DB: db}
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) || isInvalidUUID(err) {
		return nil, entity.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find event: %w", err)
	}
	return e, nil
}

func (r *EventRepository) List(ctx context.Context, filter entity.EventFilter) ([]entity.Event, error) {
	where := []string{"active = $1"}
	args := []any{filter.Active}
	if filter.Featured != nil {
		args = append(args, *filter.Featured)
		where = append(where, fmt.Sprintf("featured = $%d", len(args)))
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY featured DESC, start_date ASC, name ASC`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events := []entity.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
