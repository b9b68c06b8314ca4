package usecase

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xavierca1/matchday-leads/internal/clock"
	"github.com/xavierca1/matchday-leads/internal/entity"
)

const (
	DefaultVerificationTTL = time.Hour
	DefaultMaxSendsPerHour = 3
)

type EmailVerificationUseCase struct {
	Repo       entity.EmailVerificationRepositoryInterface
	Mailer     EmailService
	Clock      clock.Clock
	BackendURL string
	TokenTTL   time.Duration
	MaxSends   int
	SendWindow time.Duration
}

func NewEmailVerificationUseCase(
	repo entity.EmailVerificationRepositoryInterface,
	mailer EmailService,
	clk clock.Clock,
	backendURL string,
) *EmailVerificationUseCase {
	return &EmailVerificationUseCase{
		Repo:       repo,
		Mailer:     mailer,
		Clock:      clk,
		BackendURL: strings.TrimRight(backendURL, "/"),
		TokenTTL:   DefaultVerificationTTL,
		MaxSends:   DefaultMaxSendsPerHour,
		SendWindow: time.Hour,
	}
}

// Request mails a fresh verification link. Addresses that are still verified
// are left alone. At most MaxSends links go out per SendWindow.
func (uc *EmailVerificationUseCase) Request(ctx context.Context, input RequestVerificationInput) (*RequestVerificationOutput, error) {
	if strings.TrimSpace(input.Email) == "" || !isValidEmail(input.Email) {
		return nil, ValidationErrors{{Field: "email", Message: "valid email is required"}}
	}
	email := entity.NormalizeEmail(input.Email)
	now := uc.Clock.Now()

	previous, err := uc.Repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, entity.ErrVerificationNotFound) {
		return nil, technical("VERIFICATION_LOOKUP_FAILED", "failed to load email verification", err)
	}
	if previous != nil && previous.IsVerified(now) {
		return &RequestVerificationOutput{Email: email, AlreadyVerified: true}, nil
	}

	next := &entity.EmailVerification{Email: email, CreatedAt: now, WindowStartedAt: now}
	if previous != nil {
		copied := *previous
		next = &copied
		if !now.Before(next.WindowStartedAt.Add(uc.SendWindow)) {
			next.SendCount = 0
			next.WindowStartedAt = now
		}
	}

	if next.SendCount >= uc.MaxSends {
		return nil, &RateLimitedError{
			Reason:     "verification_limit",
			Message:    fmt.Sprintf("Too many verification emails requested. At most %d per hour.", uc.MaxSends),
			RetryAfter: minutesUntil(now, next.WindowStartedAt.Add(uc.SendWindow)),
		}
	}

	token, err := newToken()
	if err != nil {
		return nil, technical("TOKEN_GENERATION_FAILED", "failed to generate verification token", err)
	}
	next.Token = token
	next.ExpiresAt = now.Add(uc.TokenTTL)
	next.Verified = false
	next.SendCount++
	next.UpdatedAt = now

	link := uc.BackendURL + "/api/verify-email/" + token

	tx := NewTransaction()
	tx.AddStep("save verification",
		func(ctx context.Context) error { return uc.Repo.Save(ctx, next) },
		func(ctx context.Context) error {
			if previous == nil {
				return uc.Repo.Delete(ctx, email)
			}
			return uc.Repo.Save(ctx, previous)
		},
	)
	tx.AddStep("send verification email",
		func(ctx context.Context) error { return uc.Mailer.SendVerification(email, link, next.ExpiresAt) },
		nil,
	)
	if err := tx.Execute(ctx); err != nil {
		return nil, technical("VERIFICATION_SEND_FAILED", "failed to send verification email", err)
	}

	return &RequestVerificationOutput{Email: email}, nil
}

// Confirm marks the address behind token as verified until the token's expiry.
func (uc *EmailVerificationUseCase) Confirm(ctx context.Context, token string) (*ConfirmVerificationOutput, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ValidationErrors{{Field: "token", Message: "is required"}}
	}

	v, err := uc.Repo.FindByToken(ctx, token)
	if errors.Is(err, entity.ErrVerificationNotFound) {
		return nil, notFound("verification token", token)
	}
	if err != nil {
		return nil, technical("VERIFICATION_LOOKUP_FAILED", "failed to load email verification", err)
	}

	now := uc.Clock.Now()
	if now.After(v.ExpiresAt) {
		return nil, &ConflictError{Code: "token_expired", Message: "verification link has expired", Gone: true}
	}

	if !v.Verified {
		v.Verified = true
		v.UpdatedAt = now
		if err := uc.Repo.Save(ctx, v); err != nil {
			return nil, technical("VERIFICATION_SAVE_FAILED", "failed to save email verification", err)
		}
	}

	return &ConfirmVerificationOutput{Email: v.Email, VerifiedAt: v.UpdatedAt}, nil
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func minutesUntil(now, t time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Minute - 1) / time.Minute)
}
