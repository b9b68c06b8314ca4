package mail

import (
	"log"
	"time"

	"github.com/xavierca1/matchday-leads/internal/infra/queue"
)

// LogSender stands in for EmailSender when no SMTP host is configured. It
// logs what would have been sent, which is enough to click through the
// verification and quote links locally.
type LogSender struct {
	BackendURL string
}

func (s LogSender) SendVerification(to, link string, expiresAt time.Time) error {
	log.Printf("📧 [mail disabled] verification for %s: %s (expires %s)", to, link, expiresAt.Format(time.RFC3339))
	return nil
}

func (s LogSender) SendQuote(payload queue.QuoteGeneratedPayload) error {
	log.Printf("📧 [mail disabled] quote %s for %s: %s, accept %s/api/quotes/%s/accept",
		payload.QuoteID, payload.Email, rupees(payload.Breakdown.FinalPrice), s.BackendURL, payload.QuoteID)
	return nil
}
