package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actor identifies who triggered a status change.
type Actor string

const (
	ActorSystem   Actor = "system"
	ActorAdmin    Actor = "admin"
	ActorCustomer Actor = "customer"
)

func (a Actor) Valid() bool {
	switch a {
	case ActorSystem, ActorAdmin, ActorCustomer:
		return true
	}
	return false
}

// StatusHistoryEntry is written once per transition and never changed.
// FromStatus is nil for the entry recorded at lead creation.
type StatusHistoryEntry struct {
	ID         string      `json:"id"`
	LeadID     string      `json:"lead_id"`
	FromStatus *LeadStatus `json:"from_status"`
	ToStatus   LeadStatus  `json:"to_status"`
	Actor      Actor       `json:"changed_by"`
	Note       string      `json:"note,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

func NewStatusHistoryEntry(leadID string, from *LeadStatus, to LeadStatus, actor Actor, note string, at time.Time) *StatusHistoryEntry {
	return &StatusHistoryEntry{
		ID:         uuid.New().String(),
		LeadID:     leadID,
		FromStatus: from,
		ToStatus:   to,
		Actor:      actor,
		Note:       note,
		Timestamp:  at,
	}
}

type StatusHistoryRepositoryInterface interface {
	Append(ctx context.Context, entry *StatusHistoryEntry) error
	// ListByLead returns entries oldest first.
	ListByLead(ctx context.Context, leadID string) ([]StatusHistoryEntry, error)
}
