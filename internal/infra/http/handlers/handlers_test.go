package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/matchday-leads/internal/clock"
	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/memstore"
	"github.com/xavierca1/matchday-leads/internal/intake"
	"github.com/xavierca1/matchday-leads/internal/pricing"
	"github.com/xavierca1/matchday-leads/internal/usecase"
)

var testNow = time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)

const frontendURL = "https://matchday.example.com"

type fakeMailer struct {
	links []string
}

func (f *fakeMailer) SendVerification(to, link string, expiresAt time.Time) error {
	f.links = append(f.links, link)
	return nil
}

type testServer struct {
	handler http.Handler
	store   *memstore.Store
	mailer  *fakeMailer
}

func newTestServer(t *testing.T, requireVerification bool, limiter *IPRateLimiter) *testServer {
	t.Helper()
	store := memstore.New()
	clk := clock.NewFixed(testNow)

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

	wf := usecase.NewWorkflow(store.Leads(), store.History(), clk)
	engine := pricing.NewEngine(pricing.DefaultRules())
	mailer := &fakeMailer{}

	createLead := usecase.NewCreateLeadUseCase(store.Leads(), catalog.Events(), catalog.Packages(), store.Verifications(),
		intake.NewGuard(intake.DefaultPolicy()), wf, store, nil, clk, requireVerification)
	updateStatus := usecase.NewUpdateLeadStatusUseCase(store.Leads(), wf, store)
	queries := usecase.NewLeadQueryUseCase(store.Leads(), store.History())
	generate := usecase.NewGenerateQuoteUseCase(store.Leads(), catalog.Packages(), catalog.Events(), store.Quotes(),
		engine, wf, store, nil, clk, 0)
	preview := usecase.NewPreviewQuoteUseCase(catalog.Packages(), engine, clk)
	respond := usecase.NewRespondQuoteUseCase(store.Quotes(), store.Leads(), wf, store, nil, clk)
	verify := usecase.NewEmailVerificationUseCase(store.Verifications(), mailer, clk, "https://api.example.com")

	router := NewRouter(Routes{
		Events:         NewEventHandler(usecase.NewEventQueryUseCase(catalog.Events(), catalog.Packages())),
		Leads:          NewLeadHandler(createLead, updateStatus, queries),
		Quotes:         NewQuoteHandler(generate, preview, respond, frontendURL),
		Verification:   NewVerificationHandler(verify, frontendURL),
		Health:         NewHealthHandler(store, nil, "test"),
		IntakeLimiter:  limiter,
		AllowedOrigins: []string{"*"},
	})

	return &testServer{handler: router, store: store, mailer: mailer}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Code       string          `json:"code"`
	Data       json.RawMessage `json:"data"`
	Errors     []FieldError    `json:"errors"`
	Allowed    []string        `json:"allowed"`
	RetryAfter int             `json:"retry_after"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

const leadBody = `{"name":"Asha Rao","email":"fan@example.com","phone":"+91 98765 43210","message":"Two seats","event_id":"evt-final"}`

func createLead(t *testing.T, s *testServer) entity.Lead {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/leads", leadBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var lead entity.Lead
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &lead))
	return lead
}

// contact moves a NEW lead to CONTACTED so it can be quoted.
func contact(t *testing.T, s *testServer, id string) {
	t.Helper()
	rec := s.do(t, http.MethodPatch, "/api/leads/"+id+"/status", `{"status":"CONTACTED"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestEventEndpoints(t *testing.T) {
	s := newTestServer(t, false, nil)

	t.Run("list includes packages", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/events", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var events []usecase.EventWithPackages
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &events))
		require.Len(t, events, 1)
		assert.Equal(t, "evt-final", events[0].ID)
		require.Len(t, events[0].Packages, 1)
		assert.Equal(t, "pkg-gold", events[0].Packages[0].ID)
	})

	t.Run("bad filter is a validation error", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/events?featured=sometimes", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, rec).Code)
	})

	t.Run("get by id", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/events/evt-final", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var out usecase.EventDetailOutput
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
		assert.Equal(t, "Cup Final", out.Event.Name)
		assert.Len(t, out.Packages, 1)
	})

	t.Run("unknown event is 404", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/events/evt-missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decode(t, rec).Code)
	})
}

func TestCreateLead(t *testing.T) {
	s := newTestServer(t, false, nil)

	t.Run("valid submission is stored as NEW", func(t *testing.T) {
		lead := createLead(t, s)
		assert.Equal(t, entity.StatusNew, lead.Status)
		assert.Equal(t, "fan@example.com", lead.Email)
	})

	t.Run("repeat inside cooldown is rate limited", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/leads", leadBody)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "900", rec.Header().Get("Retry-After"))

		env := decode(t, rec)
		assert.False(t, env.Success)
		assert.Equal(t, "cooldown", env.Code)
		assert.Equal(t, 15, env.RetryAfter)
	})

	t.Run("invalid fields are listed", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/leads", `{"name":"","email":"nope","phone":"12"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		env := decode(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", env.Code)
		fields := make([]string, len(env.Errors))
		for i, e := range env.Errors {
			fields[i] = e.Field
		}
		assert.ElementsMatch(t, []string{"name", "email", "phone"}, fields)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/leads", `{"name":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_JSON", decode(t, rec).Code)
	})
}

func TestCreateLeadRequiresVerifiedEmail(t *testing.T) {
	s := newTestServer(t, true, nil)

	rec := s.do(t, http.MethodPost, "/api/leads", leadBody)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", decode(t, rec).Errors[0].Field)

	rec = s.do(t, http.MethodPost, "/api/verify-email/send", `{"email":"FAN@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, s.mailer.links, 1)

	token := s.mailer.links[0][strings.LastIndex(s.mailer.links[0], "/")+1:]
	rec = s.do(t, http.MethodGet, "/api/verify-email/"+token, "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, frontendURL+"/?email=fan%40example.com&emailVerified=true", rec.Header().Get("Location"))

	createLead(t, s)
}

func TestVerificationConfirmUnknownToken(t *testing.T) {
	s := newTestServer(t, true, nil)

	rec := s.do(t, http.MethodGet, "/api/verify-email/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestLeadStatusEndpoints(t *testing.T) {
	s := newTestServer(t, false, nil)
	lead := createLead(t, s)

	t.Run("valid transition", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, "/api/leads/"+lead.ID+"/status", `{"status":"CONTACTED","note":"called back"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated entity.Lead
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &updated))
		assert.Equal(t, entity.StatusContacted, updated.Status)
	})

	t.Run("invalid transition lists allowed statuses", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, "/api/leads/"+lead.ID+"/status", `{"status":"CONVERTED"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		env := decode(t, rec)
		assert.Equal(t, "INVALID_TRANSITION", env.Code)
		assert.NotEmpty(t, env.Allowed)
		assert.NotContains(t, env.Allowed, "CONVERTED")
	})

	t.Run("history has both entries", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/leads/"+lead.ID+"/history", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var out usecase.LeadHistoryOutput
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
		require.Len(t, out.History, 2)
		assert.Equal(t, entity.StatusContacted, out.History[1].ToStatus)
		assert.Equal(t, entity.ActorAdmin, out.History[1].Actor)
	})

	t.Run("next statuses", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/leads/"+lead.ID+"/next-statuses", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var out usecase.NextStatusesOutput
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
		assert.Equal(t, entity.StatusContacted, out.Current)
		assert.Equal(t, entity.NextStatuses(entity.StatusContacted), out.Next)
	})

	t.Run("list filters by status", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/leads?status=CONTACTED&limit=500", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var out usecase.ListLeadsOutput
		require.NoError(t, json.Unmarshal(decode(t, rec).Data, &out))
		assert.Equal(t, 1, out.Total)
		assert.Equal(t, 100, out.Limit)
	})

	t.Run("unknown lead", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/leads/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "NOT_FOUND", decode(t, rec).Code)
	})
}

func TestQuoteEndpoints(t *testing.T) {
	s := newTestServer(t, false, nil)
	lead := createLead(t, s)
	contact(t, s, lead.ID)

	rec := s.do(t, http.MethodPost, "/api/quotes/preview", `{"package_id":"pkg-gold","travelers":4,"travel_date":"2026-07-15"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var preview usecase.PreviewQuoteOutput
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &preview))
	assert.Equal(t, "408000.00", preview.Breakdown.FinalPrice.StringFixed(2))

	rec = s.do(t, http.MethodPost, "/api/quotes/generate",
		`{"lead_id":"`+lead.ID+`","package_id":"pkg-gold","travelers":4,"travel_date":"2026-07-15"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var generated usecase.GenerateQuoteOutput
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &generated))
	assert.Equal(t, entity.StatusQuoteSent, generated.LeadStatus)
	quoteID := generated.Quote.ID

	t.Run("accept link redirects to the frontend", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/quotes/"+quoteID+"/accept", "")
		require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
		assert.Equal(t, frontendURL+"/?quoteId="+quoteID+"&quoteResponse=accepted", rec.Header().Get("Location"))

		l, err := s.store.Leads().FindByID(context.Background(), lead.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusConverted, l.Status)
	})

	t.Run("second answer conflicts", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/quotes/"+quoteID+"/respond", `{"response":"declined"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "quote_already_responded", decode(t, rec).Code)
	})

	t.Run("unknown quote from link", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/quotes/missing/decline", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "<h1>")
	})
}

func TestRespondExpiredQuoteIsGone(t *testing.T) {
	s := newTestServer(t, false, nil)
	lead := createLead(t, s)
	contact(t, s, lead.ID)

	rec := s.do(t, http.MethodPost, "/api/quotes/generate",
		`{"lead_id":"`+lead.ID+`","package_id":"pkg-gold","travelers":2,"travel_date":"2026-07-15"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var generated usecase.GenerateQuoteOutput
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &generated))

	later := clock.NewFixed(testNow.AddDate(0, 2, 0))
	respond := usecase.NewRespondQuoteUseCase(s.store.Quotes(), s.store.Leads(),
		usecase.NewWorkflow(s.store.Leads(), s.store.History(), later), s.store, nil, later)
	router := NewRouter(Routes{
		Events:       NewEventHandler(usecase.NewEventQueryUseCase(s.store.Catalog().Events(), s.store.Catalog().Packages())),
		Leads:        &LeadHandler{},
		Quotes:       NewQuoteHandler(nil, nil, respond, frontendURL),
		Verification: &VerificationHandler{},
		Health:       &HealthHandler{},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/quotes/"+generated.Quote.ID+"/respond", strings.NewReader(`{"response":"accepted"}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "quote_expired", decode(t, rec).Code)
}

func TestIntakeLimiterByIP(t *testing.T) {
	s := newTestServer(t, false, NewIPRateLimiter(1, time.Minute))

	createLead(t, s)
	rec := s.do(t, http.MethodPost, "/api/leads", strings.Replace(leadBody, "fan@", "other@", 1))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "too_many_requests", decode(t, rec).Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestIPRateLimiterWindow(t *testing.T) {
	rl := NewIPRateLimiter(2, time.Minute)
	now := testNow
	rl.now = func() time.Time { return now }

	ok, _ := rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)
	ok, wait := rl.Allow("1.2.3.4")
	assert.False(t, ok)
	assert.Equal(t, time.Minute, wait)

	ok, _ = rl.Allow("5.6.7.8")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = rl.Allow("1.2.3.4")
	assert.True(t, ok)

	now = now.Add(5 * time.Minute)
	rl.sweep()
	assert.Empty(t, rl.visitors)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, false, nil)

	rec := s.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "healthy", out.Status)
	assert.Equal(t, "healthy", out.Dependencies["database"])
	assert.Equal(t, "not configured", out.Dependencies["rabbitmq"])
}

type closedBroker struct{}

func (closedBroker) Healthy() bool { return false }

func TestHealthDegradedWhenBrokerDown(t *testing.T) {
	h := NewHealthHandler(memstore.New(), closedBroker{}, "test")
	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
