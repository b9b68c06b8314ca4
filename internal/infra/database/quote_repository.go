package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

const quoteColumns = `id, lead_id, package_id, event_id, travelers, event_date, base_price, final_price, breakdown, valid_until, user_response, responded_at, created_at`

type QuoteRepository struct {
	DB *sql.DB
}

func NewQuoteRepository(db *sql.DB) *QuoteRepository {
	return &QuoteRepository{DB: db}
}

func (r *QuoteRepository) Create(ctx context.Context, q *entity.Quote) error {
	breakdown, err := json.Marshal(q.Breakdown)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}

	query := `
		INSERT INTO quotes (` + quoteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err = conn(ctx, r.DB).ExecContext(ctx, query,
		q.ID,
		q.LeadID,
		q.PackageID,
		q.EventID,
		q.Travelers,
		q.EventDate,
		q.BasePrice,
		q.FinalPrice,
		breakdown,
		q.ValidUntil,
		string(q.UserResponse),
		q.RespondedAt,
		q.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create quote: %w", err)
	}
	return nil
}

func (r *QuoteRepository) FindByID(ctx context.Context, id string) (*entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id = $1`

	q, err := scanQuote(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) || isInvalidUUID(err) {
		return nil, entity.ErrQuoteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find quote: %w", err)
	}
	return q, nil
}

func (r *QuoteRepository) ListByLead(ctx context.Context, leadID string) ([]entity.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE lead_id = $1 ORDER BY created_at DESC`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, leadID)
	if isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list quotes: %w", err)
	}
	defer rows.Close()

	var quotes []entity.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quote: %w", err)
		}
		quotes = append(quotes, *q)
	}
	return quotes, rows.Err()
}

// UpdateResponse only touches quotes that are still pending.
func (r *QuoteRepository) UpdateResponse(ctx context.Context, id string, response entity.QuoteResponse, at time.Time) error {
	query := `UPDATE quotes SET user_response = $1, responded_at = $2 WHERE id = $3 AND user_response = 'pending'`

	res, err := conn(ctx, r.DB).ExecContext(ctx, query, string(response), at, id)
	if isInvalidUUID(err) {
		return entity.ErrQuoteNotFound
	}
	if err != nil {
		return fmt.Errorf("update quote response: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	var exists bool
	if err := conn(ctx, r.DB).QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("update quote response: %w", err)
	}
	if !exists {
		return entity.ErrQuoteNotFound
	}
	return entity.ErrQuoteAlreadyResponded
}

func scanQuote(row rowScanner) (*entity.Quote, error) {
	var (
		q           entity.Quote
		breakdown   []byte
		response    string
		respondedAt sql.NullTime
	)
	err := row.Scan(
		&q.ID,
		&q.LeadID,
		&q.PackageID,
		&q.EventID,
		&q.Travelers,
		&q.EventDate,
		&q.BasePrice,
		&q.FinalPrice,
		&breakdown,
		&q.ValidUntil,
		&response,
		&respondedAt,
		&q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(breakdown, &q.Breakdown); err != nil {
		return nil, fmt.Errorf("decode breakdown: %w", err)
	}
	q.UserResponse = entity.QuoteResponse(response)
	if respondedAt.Valid {
		t := respondedAt.Time.UTC()
		q.RespondedAt = &t
	}
	q.EventDate = q.EventDate.UTC()
	q.ValidUntil = q.ValidUntil.UTC()
	q.CreatedAt = q.CreatedAt.UTC()
	return &q, nil
}
