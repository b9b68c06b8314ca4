package intake

import (
	"fmt"
	"time"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

type Reason string

const (
	ReasonCooldown        Reason = "cooldown"
	ReasonDailyCap        Reason = "daily_cap"
	ReasonDuplicateIntent Reason = "duplicate_intent"
)

// Policy holds the thresholds of the three intake checks.
type Policy struct {
	Cooldown        time.Duration
	DailyCap        int
	DailyWindow     time.Duration
	DuplicateWindow time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Cooldown:        15 * time.Minute,
		DailyCap:        5,
		DailyWindow:     24 * time.Hour,
		DuplicateWindow: 7 * 24 * time.Hour,
	}
}

// Lookback is how far back the caller must load submissions for Evaluate to
// see everything it needs.
func (p Policy) Lookback() time.Duration {
	return max(p.Cooldown, p.DailyWindow, p.DuplicateWindow)
}

// Submission is a previous lead from the same email address.
type Submission struct {
	LeadID    string
	Email     string
	EventID   string
	Status    entity.LeadStatus
	CreatedAt time.Time
}

func SubmissionsFromLeads(leads []entity.Lead) []Submission {
	out := make([]Submission, 0, len(leads))
	for _, l := range leads {
		s := Submission{LeadID: l.ID, Email: l.Email, Status: l.Status, CreatedAt: l.CreatedAt}
		if l.EventID != nil {
			s.EventID = *l.EventID
		}
		out = append(out, s)
	}
	return out
}

type Decision struct {
	Accepted bool
	Reason   Reason
	Message  string
	// RetryAfter is whole minutes, rounded up. Zero when retrying will not help.
	RetryAfter int
}

func accept() Decision {
	return Decision{Accepted: true}
}

type Guard struct {
	policy Policy
}

func NewGuard(p Policy) *Guard {
	return &Guard{policy: p}
}

func (g *Guard) Policy() Policy {
	return g.policy
}

// Evaluate decides whether a new lead from email may be created. Checks run in
// order and the first failure wins. history may be in any order; submissions
// from other addresses are ignored.
func (g *Guard) Evaluate(email, eventID string, history []Submission, now time.Time) Decision {
	history = forEmail(entity.NormalizeEmail(email), history)

	if d := g.checkCooldown(history, now); !d.Accepted {
		return d
	}
	if d := g.checkDailyCap(history, now); !d.Accepted {
		return d
	}
	if d := g.checkDuplicate(eventID, history, now); !d.Accepted {
		return d
	}
	return accept()
}

func (g *Guard) checkCooldown(history []Submission, now time.Time) Decision {
	var latest time.Time
	for _, s := range history {
		if s.CreatedAt.After(latest) {
			latest = s.CreatedAt
		}
	}
	if latest.IsZero() {
		return accept()
	}

	readyAt := latest.Add(g.policy.Cooldown)
	if !now.Before(readyAt) {
		return accept()
	}

	wait := minutesUntil(now, readyAt)
	return Decision{
		Reason:     ReasonCooldown,
		Message:    fmt.Sprintf("Please wait %d minute(s) before submitting another enquiry.", wait),
		RetryAfter: wait,
	}
}

func (g *Guard) checkDailyCap(history []Submission, now time.Time) Decision {
	windowStart := now.Add(-g.policy.DailyWindow)

	count := 0
	var oldest time.Time
	for _, s := range history {
		if s.CreatedAt.After(windowStart) {
			count++
			if oldest.IsZero() || s.CreatedAt.Before(oldest) {
				oldest = s.CreatedAt
			}
		}
	}
	if count < g.policy.DailyCap {
		return accept()
	}

	return Decision{
		Reason:     ReasonDailyCap,
		Message:    fmt.Sprintf("Daily limit of %d enquiries reached for this email.", g.policy.DailyCap),
		RetryAfter: minutesUntil(now, oldest.Add(g.policy.DailyWindow)),
	}
}

func (g *Guard) checkDuplicate(eventID string, history []Submission, now time.Time) Decision {
	if eventID == "" {
		return accept()
	}

	windowStart := now.Add(-g.policy.DuplicateWindow)
	for _, s := range history {
		if s.EventID == eventID && s.Status.Active() && s.CreatedAt.After(windowStart) {
			return Decision{
				Reason:  ReasonDuplicateIntent,
				Message: "An enquiry for this event is already being handled for this email.",
			}
		}
	}
	return accept()
}

func forEmail(email string, history []Submission) []Submission {
	out := make([]Submission, 0, len(history))
	for _, s := range history {
		if entity.NormalizeEmail(s.Email) == email {
			out = append(out, s)
		}
	}
	return out
}

func minutesUntil(now, t time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	m := int(d / time.Minute)
	if d%time.Minute != 0 {
		m++
	}
	return m
}
