package usecase

import (
	"context"
	"errors"
	"log"

	"github.com/xavierca1/matchday-leads/internal/clock"
	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/queue"
	"github.com/xavierca1/matchday-leads/internal/intake"
)

type CreateLeadUseCase struct {
	Leads               entity.LeadRepositoryInterface
	Events              entity.EventRepositoryInterface
	Packages            entity.PackageRepositoryInterface
	Verifications       entity.EmailVerificationRepositoryInterface
	Guard               *intake.Guard
	Workflow            *Workflow
	Tx                  TxManager
	Queue               EventPublisher
	Clock               clock.Clock
	RequireVerification bool
}

func NewCreateLeadUseCase(
	leads entity.LeadRepositoryInterface,
	events entity.EventRepositoryInterface,
	packages entity.PackageRepositoryInterface,
	verifications entity.EmailVerificationRepositoryInterface,
	guard *intake.Guard,
	workflow *Workflow,
	tx TxManager,
	publisher EventPublisher,
	clk clock.Clock,
	requireVerification bool,
) *CreateLeadUseCase {
	return &CreateLeadUseCase{
		Leads:               leads,
		Events:              events,
		Packages:            packages,
		Verifications:       verifications,
		Guard:               guard,
		Workflow:            workflow,
		Tx:                  tx,
		Queue:               publisher,
		Clock:               clk,
		RequireVerification: requireVerification,
	}
}

func (uc *CreateLeadUseCase) Execute(ctx context.Context, input CreateLeadInput) (*entity.Lead, error) {
	if errs := ValidateCreateLeadInput(input); len(errs) > 0 {
		return nil, errs
	}

	now := uc.Clock.Now()
	lead := entity.NewLead(input.Name, input.Email, input.Phone, input.Message, input.Travelers, now)

	if uc.RequireVerification {
		if err := uc.checkVerified(ctx, lead.Email); err != nil {
			return nil, err
		}
	}

	if err := uc.attachTrip(ctx, lead, input); err != nil {
		return nil, err
	}

	eventID := ""
	if lead.EventID != nil {
		eventID = *lead.EventID
	}

	// The address is locked before its history is read, so two submissions
	// from the same email are judged one after the other.
	err := uc.Tx.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.Leads.LockEmail(ctx, lead.Email); err != nil {
			return technical("LEAD_LOCK_FAILED", "failed to lock enquiries for this email", err)
		}

		recent, err := uc.Leads.FindByEmailSince(ctx, lead.Email, now.Add(-uc.Guard.Policy().Lookback()))
		if err != nil {
			return technical("LEAD_LOOKUP_FAILED", "failed to load previous enquiries", err)
		}

		decision := uc.Guard.Evaluate(lead.Email, eventID, intake.SubmissionsFromLeads(recent), now)
		if !decision.Accepted {
			return &RateLimitedError{
				Reason:     string(decision.Reason),
				Message:    decision.Message,
				RetryAfter: decision.RetryAfter,
			}
		}

		if err := uc.Leads.Create(ctx, lead); err != nil {
			return technical("LEAD_CREATE_FAILED", "failed to save lead", err)
		}
		return uc.Workflow.Record(ctx, lead, entity.ActorSystem, "Lead created")
	})
	if err != nil {
		return nil, err
	}

	if uc.Queue != nil {
		payload := queue.LeadCreatedPayload{
			LeadID:    lead.ID,
			Name:      lead.Name,
			Email:     lead.Email,
			EventID:   eventID,
			Travelers: lead.Travelers,
			CreatedAt: lead.CreatedAt,
		}
		if err := uc.Queue.PublishLeadCreated(ctx, payload); err != nil {
			log.Printf("⚠️ failed to publish lead.created for %s: %v", lead.ID, err)
		}
	}

	return lead, nil
}

func (uc *CreateLeadUseCase) checkVerified(ctx context.Context, email string) error {
	v, err := uc.Verifications.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, entity.ErrVerificationNotFound) {
		return technical("VERIFICATION_LOOKUP_FAILED", "failed to check email verification", err)
	}
	if v == nil || !v.IsVerified(uc.Clock.Now()) {
		return ValidationErrors{{Field: "email", Message: "must be verified before submitting an enquiry"}}
	}
	return nil
}

// attachTrip links the optional event and package. A package without an
// explicit event implies the package's event.
func (uc *CreateLeadUseCase) attachTrip(ctx context.Context, lead *entity.Lead, input CreateLeadInput) error {
	if input.PreferredDate != "" {
		d, _ := parseDate(input.PreferredDate)
		lead.PreferredDate = &d
	}

	if input.PackageID != "" {
		pkg, err := findPackage(ctx, uc.Packages, input.PackageID)
		if err != nil {
			return err
		}
		lead.PackageID = &pkg.ID
		if input.EventID == "" {
			lead.EventID = &pkg.EventID
		}
	}

	if input.EventID != "" {
		evt, err := findEvent(ctx, uc.Events, input.EventID)
		if err != nil {
			return err
		}
		lead.EventID = &evt.ID
	}

	return nil
}

func findPackage(ctx context.Context, repo entity.PackageRepositoryInterface, id string) (*entity.Package, error) {
	pkg, err := repo.FindByID(ctx, id)
	if errors.Is(err, entity.ErrPackageNotFound) {
		return nil, notFound("package", id)
	}
	if err != nil {
		return nil, technical("PACKAGE_LOOKUP_FAILED", "failed to load package", err)
	}
	return pkg, nil
}

func findEvent(ctx context.Context, repo entity.EventRepositoryInterface, id string) (*entity.Event, error) {
	evt, err := repo.FindByID(ctx, id)
	if errors.Is(err, entity.ErrEventNotFound) {
		return nil, notFound("event", id)
	}
	if err != nil {
		return nil, technical("EVENT_LOOKUP_FAILED", "failed to load event", err)
	}
	return evt, nil
}
