package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

const leadColumns = `id, name, email, phone, message, event_id, package_id, travelers, preferred_date, status, created_at, updated_at`

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (` + leadColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		lead.ID,
		lead.Name,
		lead.Email,
		lead.Phone,
		lead.Message,
		lead.EventID,
		lead.PackageID,
		lead.Travelers,
		lead.PreferredDate,
		lead.Status,
		lead.CreatedAt,
		lead.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create lead: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) || isInvalidUUID(err) {
		return nil, entity.ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find lead: %w", err)
	}
	return lead, nil
}

// LockEmail takes a transaction-scoped advisory lock keyed on the address.
// A second transaction locking the same email waits until the first commits.
func (r *LeadRepository) LockEmail(ctx context.Context, email string) error {
	if txFromContext(ctx) == nil {
		return errors.New("lock email: no transaction in context")
	}
	_, err := conn(ctx, r.DB).ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, entity.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("lock email: %w", err)
	}
	return nil
}

func (r *LeadRepository) FindByEmailSince(ctx context.Context, email string, since time.Time) ([]entity.Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE email = $1 AND created_at >= $2
		ORDER BY created_at DESC
	`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, entity.NormalizeEmail(email), since)
	if err != nil {
		return nil, fmt.Errorf("find leads by email: %w", err)
	}
	return collectLeads(rows)
}

// UpdateStatus is a compare-and-set on the status column.
func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, from, to entity.LeadStatus, at time.Time) error {
	query := `UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`

	res, err := conn(ctx, r.DB).ExecContext(ctx, query, to, at, id, from)
	if isInvalidUUID(err) {
		return entity.ErrLeadNotFound
	}
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	if n == 1 {
		return nil
	}

	var exists bool
	err = conn(ctx, r.DB).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM leads WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("update lead status: %w", err)
	}
	if !exists {
		return entity.ErrLeadNotFound
	}
	return entity.ErrStatusChanged
}

func (r *LeadRepository) UpdateTripDetails(ctx context.Context, lead *entity.Lead) error {
	query := `
		UPDATE leads
		SET travelers = $1, preferred_date = $2, event_id = $3, package_id = $4, updated_at = $5
		WHERE id = $6
	`

	res, err := conn(ctx, r.DB).ExecContext(ctx, query,
		lead.Travelers,
		lead.PreferredDate,
		lead.EventID,
		lead.PackageID,
		lead.UpdatedAt,
		lead.ID,
	)
	if err != nil {
		return fmt.Errorf("update lead trip: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, int, error) {
	statuses := make([]string, len(filter.Statuses))
	for i, s := range filter.Statuses {
		statuses[i] = s.String()
	}

	where := `WHERE (cardinality($1::text[]) = 0 OR status = ANY($1::text[]))
		AND ($2 = '' OR email = $2)`

	var total int
	err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT COUNT(*) FROM leads `+where, pq.Array(statuses), filter.Email).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = total
	}

	query := `SELECT ` + leadColumns + ` FROM leads ` + where + `
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, pq.Array(statuses), filter.Email, limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	leads, err := collectLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		l             entity.Lead
		eventID       sql.NullString
		packageID     sql.NullString
		preferredDate sql.NullTime
	)
	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Email,
		&l.Phone,
		&l.Message,
		&eventID,
		&packageID,
		&l.Travelers,
		&preferredDate,
		&l.Status,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if eventID.Valid {
		l.EventID = &eventID.String
	}
	if packageID.Valid {
		l.PackageID = &packageID.String
	}
	if preferredDate.Valid {
		d := preferredDate.Time.UTC()
		l.PreferredDate = &d
	}
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return &l, nil
}

func collectLeads(rows *sql.Rows) ([]entity.Lead, error) {
	defer rows.Close()

	var leads []entity.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	return leads, rows.Err()
}
