package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

const verificationColumns = `email, token, expires_at, verified, send_count, window_started_at, created_at, updated_at`

type EmailVerificationRepository struct {
	DB *sql.DB
}

func NewEmailVerificationRepository(db *sql.DB) *EmailVerificationRepository {
	return &EmailVerificationRepository{DB: db}
}

func (r *EmailVerificationRepository) FindByEmail(ctx context.Context, email string) (*entity.EmailVerification, error) {
	return r.findOne(ctx, `SELECT `+verificationColumns+` FROM email_verifications WHERE email = $1`, entity.NormalizeEmail(email))
}

func (r *EmailVerificationRepository) FindByToken(ctx context.Context, token string) (*entity.EmailVerification, error) {
	return r.findOne(ctx, `SELECT `+verificationColumns+` FROM email_verifications WHERE token = $1`, token)
}

func (r *EmailVerificationRepository) findOne(ctx context.Context, query string, arg string) (*entity.EmailVerification, error) {
	var v entity.EmailVerification
	err := conn(ctx, r.DB).QueryRowContext(ctx, query, arg).Scan(
		&v.Email,
		&v.Token,
		&v.ExpiresAt,
		&v.Verified,
		&v.SendCount,
		&v.WindowStartedAt,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrVerificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find email verification: %w", err)
	}
	v.ExpiresAt = v.ExpiresAt.UTC()
	v.WindowStartedAt = v.WindowStartedAt.UTC()
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return &v, nil
}

func (r *EmailVerificationRepository) Save(ctx context.Context, v *entity.EmailVerification) error {
	query := `
		INSERT INTO email_verifications (` + verificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email)
		DO UPDATE SET
			token = EXCLUDED.token,
			expires_at = EXCLUDED.expires_at,
			verified = EXCLUDED.verified,
			send_count = EXCLUDED.send_count,
			window_started_at = EXCLUDED.window_started_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := conn(ctx, r.DB).ExecContext(ctx, query,
		v.Email,
		v.Token,
		v.ExpiresAt,
		v.Verified,
		v.SendCount,
		v.WindowStartedAt,
		v.CreatedAt,
		v.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("save email verification: token collision: %w", err)
	}
	if err != nil {
		return fmt.Errorf("save email verification: %w", err)
	}
	return nil
}

func (r *EmailVerificationRepository) Delete(ctx context.Context, email string) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM email_verifications WHERE email = $1`, email)
	if err != nil {
		return fmt.Errorf("delete email verification: %w", err)
	}
	return nil
}

func (r *EmailVerificationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM email_verifications WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("delete expired verifications: %w", err)
	}
	return res.RowsAffected()
}
