package usecase

import (
	"context"
	"strings"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// LeadQueryUseCase serves the read side of the admin screens.
type LeadQueryUseCase struct {
	Leads     entity.LeadRepositoryInterface
	Histories entity.StatusHistoryRepositoryInterface
}

func NewLeadQueryUseCase(leads entity.LeadRepositoryInterface, history entity.StatusHistoryRepositoryInterface) *LeadQueryUseCase {
	return &LeadQueryUseCase{Leads: leads, Histories: history}
}

func (uc *LeadQueryUseCase) Get(ctx context.Context, id string) (*entity.Lead, error) {
	return findLead(ctx, uc.Leads, id)
}

func (uc *LeadQueryUseCase) List(ctx context.Context, input ListLeadsInput) (*ListLeadsOutput, error) {
	filter := entity.LeadFilter{Email: entity.NormalizeEmail(input.Email)}

	if input.Status != "" {
		for _, raw := range strings.Split(input.Status, ",") {
			s, err := entity.ParseLeadStatus(raw)
			if err != nil {
				return nil, ValidationErrors{{Field: "status", Message: "must be one of " + statusList()}}
			}
			filter.Statuses = append(filter.Statuses, s)
		}
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	filter.Limit = limit
	filter.Offset = (page - 1) * limit

	leads, total, err := uc.Leads.List(ctx, filter)
	if err != nil {
		return nil, technical("LEAD_LIST_FAILED", "failed to list leads", err)
	}
	if leads == nil {
		leads = []entity.Lead{}
	}

	return &ListLeadsOutput{
		Leads: leads,
		Total: total,
		Page:  page,
		Limit: limit,
		Pages: (total + limit - 1) / limit,
	}, nil
}

func (uc *LeadQueryUseCase) History(ctx context.Context, id string) (*LeadHistoryOutput, error) {
	lead, err := findLead(ctx, uc.Leads, id)
	if err != nil {
		return nil, err
	}

	entries, err := uc.Histories.ListByLead(ctx, id)
	if err != nil {
		return nil, technical("HISTORY_LOOKUP_FAILED", "failed to load lead history", err)
	}
	if entries == nil {
		entries = []entity.StatusHistoryEntry{}
	}

	return &LeadHistoryOutput{Lead: lead, History: entries}, nil
}

func (uc *LeadQueryUseCase) NextStatuses(ctx context.Context, id string) (*NextStatusesOutput, error) {
	lead, err := findLead(ctx, uc.Leads, id)
	if err != nil {
		return nil, err
	}
	return &NextStatusesOutput{Current: lead.Status, Next: entity.NextStatuses(lead.Status)}, nil
}
