package usecase

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/xavierca1/matchday-leads/internal/clock"
	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/queue"
)

type RespondQuoteUseCase struct {
	Quotes   entity.QuoteRepositoryInterface
	Leads    entity.LeadRepositoryInterface
	Workflow *Workflow
	Tx       TxManager
	Queue    EventPublisher
	Clock    clock.Clock
}

func NewRespondQuoteUseCase(
	quotes entity.QuoteRepositoryInterface,
	leads entity.LeadRepositoryInterface,
	workflow *Workflow,
	tx TxManager,
	publisher EventPublisher,
	clk clock.Clock,
) *RespondQuoteUseCase {
	return &RespondQuoteUseCase{
		Quotes:   quotes,
		Leads:    leads,
		Workflow: workflow,
		Tx:       tx,
		Queue:    publisher,
		Clock:    clk,
	}
}

// Execute records the customer's answer and moves the lead to CONVERTED or
// LOST. The answer is kept only if the lead transition succeeds.
func (uc *RespondQuoteUseCase) Execute(ctx context.Context, input RespondQuoteInput) (*RespondQuoteOutput, error) {
	response, errs := validateRespondQuoteInput(input)
	if len(errs) > 0 {
		return nil, errs
	}

	now := uc.Clock.Now()

	var (
		quote *entity.Quote
		lead  *entity.Lead
	)
	err := uc.Tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		quote, err = uc.Quotes.FindByID(ctx, input.QuoteID)
		if errors.Is(err, entity.ErrQuoteNotFound) {
			return notFound("quote", input.QuoteID)
		}
		if err != nil {
			return technical("QUOTE_LOOKUP_FAILED", "failed to load quote", err)
		}

		if quote.UserResponse != entity.ResponsePending {
			return alreadyResponded(quote.UserResponse)
		}
		if response == entity.ResponseAccepted && quote.Expired(now) {
			return &ConflictError{Code: "quote_expired", Message: "quote has expired and can no longer be accepted", Gone: true}
		}

		err = uc.Quotes.UpdateResponse(ctx, quote.ID, response, now)
		if errors.Is(err, entity.ErrQuoteAlreadyResponded) {
			return alreadyResponded("")
		}
		if err != nil {
			return technical("QUOTE_UPDATE_FAILED", "failed to record quote response", err)
		}
		quote.UserResponse = response
		quote.RespondedAt = &now

		lead, err = findLead(ctx, uc.Leads, quote.LeadID)
		if err != nil {
			return err
		}

		to, _ := response.LeadStatus()
		return uc.Workflow.Transition(ctx, lead, to, entity.ActorCustomer, "Quote "+string(response)+" by customer")
	})
	if err != nil {
		return nil, err
	}

	if uc.Queue != nil {
		payload := queue.QuoteRespondedPayload{
			QuoteID:     quote.ID,
			LeadID:      lead.ID,
			Response:    string(response),
			LeadStatus:  lead.Status.String(),
			RespondedAt: now,
		}
		if err := uc.Queue.PublishQuoteResponded(ctx, payload); err != nil {
			log.Printf("⚠️ failed to publish quote.responded for %s: %v", quote.ID, err)
		}
	}

	return &RespondQuoteOutput{Quote: quote, LeadStatus: lead.Status}, nil
}

func validateRespondQuoteInput(input RespondQuoteInput) (entity.QuoteResponse, ValidationErrors) {
	var errs ValidationErrors
	if strings.TrimSpace(input.QuoteID) == "" {
		errs = append(errs, ValidationError{"id", "is required"})
	}

	response, err := entity.ParseQuoteResponse(input.Response)
	if err != nil || response == entity.ResponsePending {
		errs = append(errs, ValidationError{"response", "must be accepted or declined"})
	}
	return response, errs
}

func alreadyResponded(previous entity.QuoteResponse) error {
	msg := "quote has already been responded to"
	if previous != "" {
		msg = "quote has already been " + string(previous)
	}
	return &ConflictError{Code: "quote_already_responded", Message: msg}
}
