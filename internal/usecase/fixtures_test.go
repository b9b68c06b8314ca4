package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/matchday-leads/internal/clock"
	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/memstore"
	"github.com/xavierca1/matchday-leads/internal/infra/queue"
	"github.com/xavierca1/matchday-leads/internal/intake"
	"github.com/xavierca1/matchday-leads/internal/pricing"
)

var testNow = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishLeadCreated(ctx context.Context, payload queue.LeadCreatedPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *MockPublisher) PublishQuoteGenerated(ctx context.Context, payload queue.QuoteGeneratedPayload) error {
	return m.Called(ctx, payload).Error(0)
}

func (m *MockPublisher) PublishQuoteResponded(ctx context.Context, payload queue.QuoteRespondedPayload) error {
	return m.Called(ctx, payload).Error(0)
}

type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendVerification(to, link string, expiresAt time.Time) error {
	return m.Called(to, link, expiresAt).Error(0)
}

// testEnv wires every use case against one in-memory store.
type testEnv struct {
	store     *memstore.Store
	clock     clock.Clock
	publisher *MockPublisher
	workflow  *Workflow

	createLead   *CreateLeadUseCase
	updateStatus *UpdateLeadStatusUseCase
	queries      *LeadQueryUseCase
	events       *EventQueryUseCase
	generate     *GenerateQuoteUseCase
	preview      *PreviewQuoteUseCase
	respond      *RespondQuoteUseCase
}

func newTestEnv(now time.Time) *testEnv {
	store := memstore.New()
	clk := clock.NewFixed(now)
	pub := new(MockPublisher)
	pub.On("PublishLeadCreated", mock.Anything, mock.Anything).Return(nil).Maybe()
	pub.On("PublishQuoteGenerated", mock.Anything, mock.Anything).Return(nil).Maybe()
	pub.On("PublishQuoteResponded", mock.Anything, mock.Anything).Return(nil).Maybe()

	catalog := store.Catalog()
	catalog.AddEvent(entity.Event{
		ID:        "evt-final",
		Name:      "Cup Final",
		Location:  "London",
		StartDate: time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.July, 15, 0, 0, 0, 0, time.UTC),
		Active:    true,
	})
	catalog.AddPackage(entity.Package{ID: "pkg-gold", EventID: "evt-final", Name: "Gold", BasePrice: decimal.NewFromInt(100000), Active: true})
	catalog.AddPackage(entity.Package{ID: "pkg-retired", EventID: "evt-final", Name: "Retired", BasePrice: decimal.NewFromInt(50000), Active: false})

	wf := NewWorkflow(store.Leads(), store.History(), clk)
	engine := pricing.NewEngine(pricing.DefaultRules())

	return &testEnv{
		store:     store,
		clock:     clk,
		publisher: pub,
		workflow:  wf,
		createLead: NewCreateLeadUseCase(store.Leads(), catalog.Events(), catalog.Packages(), store.Verifications(),
			intake.NewGuard(intake.DefaultPolicy()), wf, store, pub, clk, false),
		updateStatus: NewUpdateLeadStatusUseCase(store.Leads(), wf, store),
		queries:      NewLeadQueryUseCase(store.Leads(), store.History()),
		events:       NewEventQueryUseCase(catalog.Events(), catalog.Packages()),
		generate: NewGenerateQuoteUseCase(store.Leads(), catalog.Packages(), catalog.Events(), store.Quotes(),
			engine, wf, store, pub, clk, 0),
		preview: NewPreviewQuoteUseCase(catalog.Packages(), engine, clk),
		respond: NewRespondQuoteUseCase(store.Quotes(), store.Leads(), wf, store, pub, clk),
	}
}

// seedLead stores a lead directly in the given status with a creation entry.
func (e *testEnv) seedLead(id, email string, status entity.LeadStatus, createdAt time.Time) *entity.Lead {
	l := entity.NewLead("Asha Rao", email, "+91 98765 43210", "", 1, createdAt)
	l.ID = id
	l.Status = status
	ctx := context.Background()
	if err := e.store.Leads().Create(ctx, l); err != nil {
		panic(err)
	}
	if err := e.workflow.Record(ctx, l, entity.ActorSystem, "seeded"); err != nil {
		panic(err)
	}
	return l
}

func validLeadInput(email string) CreateLeadInput {
	return CreateLeadInput{
		Name:    "Asha Rao",
		Email:   email,
		Phone:   "+91 98765 43210",
		Message: "Two seats for the final please",
	}
}
