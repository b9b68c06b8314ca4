package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

type HistoryRepository struct {
	DB *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{DB: db}
}

func (r *HistoryRepository) Append(ctx context.Context, e *entity.StatusHistoryEntry) error {
	query := `
		INSERT INTO lead_status_history (id, lead_id, from_status, to_status, actor, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var from any
	if e.FromStatus != nil {
		from = e.FromStatus.String()
	}

	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		e.ID,
		e.LeadID,
		from,
		e.ToStatus,
		string(e.Actor),
		e.Note,
		e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append lead history: %w", err)
	}
	return nil
}

func (r *HistoryRepository) ListByLead(ctx context.Context, leadID string) ([]entity.StatusHistoryEntry, error) {
	query := `
		SELECT id, lead_id, from_status, to_status, actor, note, created_at
		FROM lead_status_history
		WHERE lead_id = $1
		ORDER BY created_at, seq
	`

	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, leadID)
	if isInvalidUUID(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list lead history: %w", err)
	}
	defer rows.Close()

	var entries []entity.StatusHistoryEntry
	for rows.Next() {
		var (
			e     entity.StatusHistoryEntry
			from  sql.NullString
			actor string
		)
		if err := rows.Scan(&e.ID, &e.LeadID, &from, &e.ToStatus, &actor, &e.Note, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan lead history: %w", err)
		}
		if from.Valid {
			s, err := entity.ParseLeadStatus(from.String)
			if err != nil {
				return nil, err
			}
			e.FromStatus = &s
		}
		e.Actor = entity.Actor(actor)
		e.Timestamp = e.Timestamp.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
