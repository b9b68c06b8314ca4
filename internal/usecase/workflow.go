package usecase

import (
	"context"
	"errors"

	"github.com/xavierca1/matchday-leads/internal/clock"
	"github.com/xavierca1/matchday-leads/internal/entity"
)

// maxTransitionAttempts bounds how often Transition reloads a lead whose
// status moved underneath it.
const maxTransitionAttempts = 3

// Workflow is the only writer of lead status. Every change it makes is paired
// with exactly one history entry.
type Workflow struct {
	Leads   entity.LeadRepositoryInterface
	History entity.StatusHistoryRepositoryInterface
	Clock   clock.Clock
}

func NewWorkflow(leads entity.LeadRepositoryInterface, history entity.StatusHistoryRepositoryInterface, clk clock.Clock) *Workflow {
	return &Workflow{
		Leads:   leads,
		History: history,
		Clock:   clk,
	}
}

// Record writes the creation entry (no previous status) for a lead that was
// just inserted. Call it in the same transaction as the insert.
func (w *Workflow) Record(ctx context.Context, lead *entity.Lead, actor entity.Actor, note string) error {
	entry := entity.NewStatusHistoryEntry(lead.ID, nil, lead.Status, actor, note, lead.CreatedAt)
	if err := w.History.Append(ctx, entry); err != nil {
		return technical("HISTORY_WRITE_FAILED", "failed to record lead history", err)
	}
	return nil
}

// Transition moves lead to `to` and appends the history entry. It must run
// inside a TxManager transaction. The stored status is updated with a
// compare-and-set; when another request got there first the lead is reloaded
// and the transition validated again against the fresh status, so two
// concurrent requests never both succeed silently. lead is updated in place.
func (w *Workflow) Transition(ctx context.Context, lead *entity.Lead, to entity.LeadStatus, actor entity.Actor, note string) error {
	for attempt := 1; ; attempt++ {
		if err := entity.ValidateTransition(lead.Status, to); err != nil {
			return rejected(err)
		}

		from := lead.Status
		now := w.Clock.Now()

		err := w.Leads.UpdateStatus(ctx, lead.ID, from, to, now)
		if errors.Is(err, entity.ErrStatusChanged) {
			if attempt >= maxTransitionAttempts {
				return &ConflictError{Code: "status_changed", Message: "lead status is being changed by another request"}
			}
			fresh, err := findLead(ctx, w.Leads, lead.ID)
			if err != nil {
				return err
			}
			*lead = *fresh
			continue
		}
		if errors.Is(err, entity.ErrLeadNotFound) {
			return notFound("lead", lead.ID)
		}
		if err != nil {
			return technical("STATUS_UPDATE_FAILED", "failed to update lead status", err)
		}

		lead.Status = to
		lead.UpdatedAt = now

		entry := entity.NewStatusHistoryEntry(lead.ID, &from, to, actor, note, now)
		if err := w.History.Append(ctx, entry); err != nil {
			return technical("HISTORY_WRITE_FAILED", "failed to record lead history", err)
		}
		return nil
	}
}

func rejected(err error) error {
	var te *entity.TransitionError
	if errors.As(err, &te) {
		return &TransitionRejectedError{TransitionError: te}
	}
	return err
}

func findLead(ctx context.Context, repo entity.LeadRepositoryInterface, id string) (*entity.Lead, error) {
	lead, err := repo.FindByID(ctx, id)
	if errors.Is(err, entity.ErrLeadNotFound) {
		return nil, notFound("lead", id)
	}
	if err != nil {
		return nil, technical("LEAD_LOOKUP_FAILED", "failed to load lead", err)
	}
	return lead, nil
}
