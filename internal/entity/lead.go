package entity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Lead struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Message       string     `json:"message,omitempty"`
	EventID       *string    `json:"event_id,omitempty"`
	PackageID     *string    `json:"package_id,omitempty"`
	Travelers     int        `json:"travelers"`
	PreferredDate *time.Time `json:"preferred_date,omitempty"`
	Status        LeadStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// NewLead builds a lead in the NEW status. Callers are expected to have run
// input validation already.
func NewLead(name, email, phone, message string, travelers int, now time.Time) *Lead {
	if travelers < 1 {
		travelers = 1
	}
	return &Lead{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Phone:     strings.TrimSpace(phone),
		Message:   strings.TrimSpace(message),
		Travelers: travelers,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// LeadFilter narrows lead listings. Zero values mean "no filter".
type LeadFilter struct {
	Statuses []LeadStatus
	Email    string
	Limit    int
	Offset   int
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	// LockEmail holds a lock on the address until the current transaction
	// ends, so intake checks for one email run one at a time.
	LockEmail(ctx context.Context, email string) error
	// FindByEmailSince returns the email's leads created at or after since,
	// newest first.
	FindByEmailSince(ctx context.Context, email string, since time.Time) ([]Lead, error)
	// UpdateStatus moves the lead from `from` to `to` only if its stored status
	// is still `from`; otherwise it returns ErrStatusChanged.
	UpdateStatus(ctx context.Context, id string, from, to LeadStatus, at time.Time) error
	UpdateTripDetails(ctx context.Context, lead *Lead) error
	List(ctx context.Context, filter LeadFilter) ([]Lead, int, error)
}
