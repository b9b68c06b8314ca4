package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/xavierca1/matchday-leads/internal/clock"
	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/queue"
	"github.com/xavierca1/matchday-leads/internal/pricing"
)

const DefaultQuoteValidity = 30 * 24 * time.Hour

type GenerateQuoteUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Packages entity.PackageRepositoryInterface
	Events   entity.EventRepositoryInterface
	Quotes   entity.QuoteRepositoryInterface
	Engine   *pricing.Engine
	Workflow *Workflow
	Tx       TxManager
	Queue    EventPublisher
	Clock    clock.Clock
	Validity time.Duration
}

func NewGenerateQuoteUseCase(
	leads entity.LeadRepositoryInterface,
	packages entity.PackageRepositoryInterface,
	events entity.EventRepositoryInterface,
	quotes entity.QuoteRepositoryInterface,
	engine *pricing.Engine,
	workflow *Workflow,
	tx TxManager,
	publisher EventPublisher,
	clk clock.Clock,
	validity time.Duration,
) *GenerateQuoteUseCase {
	if validity <= 0 {
		validity = DefaultQuoteValidity
	}
	return &GenerateQuoteUseCase{
		Leads:    leads,
		Packages: packages,
		Events:   events,
		Quotes:   quotes,
		Engine:   engine,
		Workflow: workflow,
		Tx:       tx,
		Queue:    publisher,
		Clock:    clk,
		Validity: validity,
	}
}

// Execute prices the package for the lead, stores the quote and moves the lead
// to QUOTE_SENT, all in one transaction. The lead must be in a status from
// which QUOTE_SENT is reachable.
func (uc *GenerateQuoteUseCase) Execute(ctx context.Context, input GenerateQuoteInput) (*GenerateQuoteOutput, error) {
	if errs := ValidateGenerateQuoteInput(input); len(errs) > 0 {
		return nil, errs
	}
	travelDate, _ := parseDate(input.TravelDate)

	pkg, err := findPackage(ctx, uc.Packages, input.PackageID)
	if err != nil {
		return nil, err
	}
	if !pkg.Active {
		return nil, ValidationErrors{{Field: "package_id", Message: "package is no longer available"}}
	}

	evt, err := findEvent(ctx, uc.Events, pkg.EventID)
	if err != nil {
		return nil, err
	}

	now := uc.Clock.Now()
	breakdown, err := uc.Engine.Compute(pkg.BasePrice, input.Travelers, travelDate, now)
	if err != nil {
		return nil, pricingFailed(err)
	}

	var (
		lead  *entity.Lead
		quote *entity.Quote
	)
	err = uc.Tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		lead, err = findLead(ctx, uc.Leads, input.LeadID)
		if err != nil {
			return err
		}

		note := "Quote generated: " + money(breakdown.FinalPrice)
		if err := uc.Workflow.Transition(ctx, lead, entity.StatusQuoteSent, entity.ActorSystem, note); err != nil {
			return err
		}

		lead.Travelers = input.Travelers
		lead.PreferredDate = &travelDate
		lead.EventID = &evt.ID
		lead.PackageID = &pkg.ID
		if err := uc.Leads.UpdateTripDetails(ctx, lead); err != nil {
			return technical("LEAD_UPDATE_FAILED", "failed to update lead trip details", err)
		}

		quote = entity.NewQuote(lead, pkg, travelDate, breakdown, now, uc.Validity)
		if err := uc.Quotes.Create(ctx, quote); err != nil {
			return technical("QUOTE_CREATE_FAILED", "failed to save quote", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.Queue != nil {
		payload := queue.QuoteGeneratedPayload{
			QuoteID:       quote.ID,
			LeadID:        lead.ID,
			Name:          lead.Name,
			Email:         lead.Email,
			PackageName:   pkg.Name,
			EventName:     evt.Name,
			EventLocation: evt.Location,
			EventDate:     quote.EventDate,
			ValidUntil:    quote.ValidUntil,
			Breakdown:     breakdown,
		}
		if err := uc.Queue.PublishQuoteGenerated(ctx, payload); err != nil {
			log.Printf("⚠️ failed to publish quote.generated for %s: %v", quote.ID, err)
		}
	}

	return &GenerateQuoteOutput{Quote: quote, Breakdown: breakdown, LeadStatus: lead.Status}, nil
}

// PreviewQuoteUseCase prices a package without touching any lead.
type PreviewQuoteUseCase struct {
	Packages entity.PackageRepositoryInterface
	Engine   *pricing.Engine
	Clock    clock.Clock
}

func NewPreviewQuoteUseCase(packages entity.PackageRepositoryInterface, engine *pricing.Engine, clk clock.Clock) *PreviewQuoteUseCase {
	return &PreviewQuoteUseCase{Packages: packages, Engine: engine, Clock: clk}
}

func (uc *PreviewQuoteUseCase) Execute(ctx context.Context, input PreviewQuoteInput) (*PreviewQuoteOutput, error) {
	if errs := ValidatePreviewQuoteInput(input); len(errs) > 0 {
		return nil, errs
	}
	travelDate, _ := parseDate(input.TravelDate)

	pkg, err := findPackage(ctx, uc.Packages, input.PackageID)
	if err != nil {
		return nil, err
	}

	breakdown, err := uc.Engine.Compute(pkg.BasePrice, input.Travelers, travelDate, uc.Clock.Now())
	if err != nil {
		return nil, pricingFailed(err)
	}

	return &PreviewQuoteOutput{Package: pkg, Breakdown: breakdown}, nil
}

func pricingFailed(err error) error {
	if errors.Is(err, pricing.ErrInvalidTravelers) {
		return ValidationErrors{{Field: "travelers", Message: err.Error()}}
	}
	return technical("PRICING_FAILED", "failed to price package", err)
}
