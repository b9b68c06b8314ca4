package entity

import (
	"context"
	"time"
)

// EmailVerification proves that whoever submits an enquiry controls the
// address. SendCount and WindowStartedAt throttle how often a token is mailed.
type EmailVerification struct {
	Email           string    `json:"email"`
	Token           string    `json:"-"`
	ExpiresAt       time.Time `json:"expires_at"`
	Verified        bool      `json:"verified"`
	SendCount       int       `json:"-"`
	WindowStartedAt time.Time `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IsVerified is true while a confirmed record has not expired.
func (v *EmailVerification) IsVerified(now time.Time) bool {
	return v.Verified && !now.After(v.ExpiresAt)
}

type EmailVerificationRepositoryInterface interface {
	FindByEmail(ctx context.Context, email string) (*EmailVerification, error)
	FindByToken(ctx context.Context, token string) (*EmailVerification, error)
	// Save inserts or replaces the record keyed by email.
	Save(ctx context.Context, v *EmailVerification) error
	Delete(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
