package usecase

import (
	"context"
	"strings"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

type UpdateLeadStatusUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Workflow *Workflow
	Tx       TxManager
}

func NewUpdateLeadStatusUseCase(leads entity.LeadRepositoryInterface, workflow *Workflow, tx TxManager) *UpdateLeadStatusUseCase {
	return &UpdateLeadStatusUseCase{
		Leads:    leads,
		Workflow: workflow,
		Tx:       tx,
	}
}

// Execute applies a manual status change requested by staff.
func (uc *UpdateLeadStatusUseCase) Execute(ctx context.Context, input UpdateLeadStatusInput) (*entity.Lead, error) {
	var errs ValidationErrors
	if strings.TrimSpace(input.LeadID) == "" {
		errs = append(errs, ValidationError{"id", "is required"})
	}

	var to entity.LeadStatus
	if strings.TrimSpace(input.Status) == "" {
		errs = append(errs, ValidationError{"status", "is required"})
	} else {
		s, err := entity.ParseLeadStatus(input.Status)
		if err != nil {
			errs = append(errs, ValidationError{"status", "must be one of " + statusList()})
		}
		to = s
	}
	if len(errs) > 0 {
		return nil, errs
	}

	var lead *entity.Lead
	err := uc.Tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		lead, err = findLead(ctx, uc.Leads, input.LeadID)
		if err != nil {
			return err
		}
		return uc.Workflow.Transition(ctx, lead, to, entity.ActorAdmin, strings.TrimSpace(input.Note))
	})
	if err != nil {
		return nil, err
	}

	return lead, nil
}

func statusList() string {
	names := make([]string, 0, len(entity.AllStatuses()))
	for _, s := range entity.AllStatuses() {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}
