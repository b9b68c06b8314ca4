package usecase

import (
	"context"
	"time"

	"github.com/xavierca1/matchday-leads/internal/infra/queue"
)

// TxManager runs fn inside one store transaction. Repositories called with the
// ctx handed to fn take part in that transaction.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	PublishLeadCreated(ctx context.Context, payload queue.LeadCreatedPayload) error
	PublishQuoteGenerated(ctx context.Context, payload queue.QuoteGeneratedPayload) error
	PublishQuoteResponded(ctx context.Context, payload queue.QuoteRespondedPayload) error
}

type EmailService interface {
	SendVerification(to, link string, expiresAt time.Time) error
}
