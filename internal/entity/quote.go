package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xavierca1/matchday-leads/internal/pricing"
)

type QuoteResponse string

const (
	ResponsePending  QuoteResponse = "pending"
	ResponseAccepted QuoteResponse = "accepted"
	ResponseDeclined QuoteResponse = "declined"
)

func ParseQuoteResponse(v string) (QuoteResponse, error) {
	switch r := QuoteResponse(strings.ToLower(strings.TrimSpace(v))); r {
	case ResponsePending, ResponseAccepted, ResponseDeclined:
		return r, nil
	}
	return "", fmt.Errorf("unknown quote response %q", v)
}

// LeadStatus is where a customer response moves the linked lead.
func (r QuoteResponse) LeadStatus() (LeadStatus, bool) {
	switch r {
	case ResponseAccepted:
		return StatusConverted, true
	case ResponseDeclined:
		return StatusLost, true
	}
	return 0, false
}

// Quote is the persisted snapshot of a pricing breakdown.
type Quote struct {
	ID           string            `json:"id"`
	LeadID       string            `json:"lead_id"`
	PackageID    string            `json:"package_id"`
	EventID      string            `json:"event_id"`
	Travelers    int               `json:"travelers"`
	EventDate    time.Time         `json:"event_date"`
	BasePrice    decimal.Decimal   `json:"base_price"`
	FinalPrice   decimal.Decimal   `json:"final_price"`
	Breakdown    pricing.Breakdown `json:"breakdown"`
	ValidUntil   time.Time         `json:"valid_until"`
	UserResponse QuoteResponse     `json:"user_response"`
	RespondedAt  *time.Time        `json:"responded_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

func NewQuote(lead *Lead, pkg *Package, eventDate time.Time, b pricing.Breakdown, now time.Time, validity time.Duration) *Quote {
	return &Quote{
		ID:           uuid.New().String(),
		LeadID:       lead.ID,
		PackageID:    pkg.ID,
		EventID:      pkg.EventID,
		Travelers:    b.Travelers,
		EventDate:    eventDate,
		BasePrice:    b.BaseTotal,
		FinalPrice:   b.FinalPrice,
		Breakdown:    b,
		ValidUntil:   now.Add(validity),
		UserResponse: ResponsePending,
		CreatedAt:    now,
	}
}

func (q *Quote) Expired(now time.Time) bool {
	return now.After(q.ValidUntil)
}

type QuoteRepositoryInterface interface {
	Create(ctx context.Context, q *Quote) error
	FindByID(ctx context.Context, id string) (*Quote, error)
	ListByLead(ctx context.Context, leadID string) ([]Quote, error)
	// UpdateResponse records the customer's answer only while the quote is
	// still pending; otherwise it returns ErrQuoteAlreadyResponded.
	UpdateResponse(ctx context.Context, id string, response QuoteResponse, at time.Time) error
}
