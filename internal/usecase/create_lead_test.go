package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/matchday-leads/internal/clock"
	"github.com/xavierca1/matchday-leads/internal/entity"
	"github.com/xavierca1/matchday-leads/internal/infra/queue"
)

func TestCreateLeadRecordsInitialHistory(t *testing.T) {
	env := newTestEnv(testNow)
	ctx := context.Background()

	lead, err := env.createLead.Execute(ctx, validLeadInput(" Fan@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "fan@example.com", lead.Email)
	assert.Equal(t, entity.StatusNew, lead.Status)
	assert.Equal(t, 1, lead.Travelers)

	history, err := env.store.History().ListByLead(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, entity.StatusNew, history[0].ToStatus)
	assert.Equal(t, entity.ActorSystem, history[0].Actor)

	env.publisher.AssertCalled(t, "PublishLeadCreated", mock.Anything, mock.MatchedBy(func(p queue.LeadCreatedPayload) bool {
		return p.LeadID == lead.ID && p.Email == "fan@example.com"
	}))
}

func TestCreateLeadValidation(t *testing.T) {
	env := newTestEnv(testNow)

	_, err := env.createLead.Execute(context.Background(), CreateLeadInput{Email: "not-an-email", Phone: "12"})

	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	fields := make([]string, 0, len(ve))
	for _, e := range ve {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "phone"}, fields)
}

func TestCreateLeadCooldown(t *testing.T) {
	env := newTestEnv(testNow)
	env.seedLead("prev", "fan@example.com", entity.StatusNew, testNow.Add(-10*time.Minute))

	_, err := env.createLead.Execute(context.Background(), validLeadInput("fan@example.com"))

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "cooldown", rl.Reason)
	assert.Equal(t, 5, rl.RetryAfter)

	leads, _ := env.store.Leads().FindByEmailSince(context.Background(), "fan@example.com", testNow.Add(-time.Hour))
	assert.Len(t, leads, 1)
}

func TestCreateLeadDailyCap(t *testing.T) {
	env := newTestEnv(testNow)
	for i := 1; i <= 5; i++ {
		env.seedLead("prev-"+string(rune('0'+i)), "fan@example.com", entity.StatusLost, testNow.Add(-time.Duration(i)*time.Hour))
	}

	_, err := env.createLead.Execute(context.Background(), validLeadInput("fan@example.com"))

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "daily_cap", rl.Reason)
	assert.Equal(t, 19*60, rl.RetryAfter)
}

func TestCreateLeadDuplicateIntent(t *testing.T) {
	env := newTestEnv(testNow)
	prev := env.seedLead("prev", "fan@example.com", entity.StatusContacted, testNow.Add(-48*time.Hour))
	evt := "evt-final"
	prev.EventID = &evt
	require.NoError(t, env.store.Leads().UpdateTripDetails(context.Background(), prev))

	input := validLeadInput("fan@example.com")
	input.EventID = "evt-final"
	_, err := env.createLead.Execute(context.Background(), input)

	var rl *RateLimitedError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, "duplicate_intent", rl.Reason)

	// Same address, no event: accepted.
	_, err = env.createLead.Execute(context.Background(), validLeadInput("fan@example.com"))
	assert.NoError(t, err)
}

func TestCreateLeadPackageImpliesEvent(t *testing.T) {
	env := newTestEnv(testNow)

	input := validLeadInput("fan@example.com")
	input.PackageID = "pkg-gold"
	input.Travelers = 3
	input.PreferredDate = "2026-07-15"

	lead, err := env.createLead.Execute(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, lead.EventID)
	assert.Equal(t, "evt-final", *lead.EventID)
	assert.Equal(t, 3, lead.Travelers)
	require.NotNil(t, lead.PreferredDate)
	assert.Equal(t, time.July, lead.PreferredDate.Month())
}

func TestCreateLeadUnknownEvent(t *testing.T) {
	env := newTestEnv(testNow)

	input := validLeadInput("fan@example.com")
	input.EventID = "evt-missing"
	_, err := env.createLead.Execute(context.Background(), input)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "event", nf.Resource)
}

func TestCreateLeadRequiresVerifiedEmail(t *testing.T) {
	env := newTestEnv(testNow)
	env.createLead.RequireVerification = true
	ctx := context.Background()

	_, err := env.createLead.Execute(ctx, validLeadInput("fan@example.com"))
	var ve ValidationErrors
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "email", ve[0].Field)

	require.NoError(t, env.store.Verifications().Save(ctx, &entity.EmailVerification{
		Email:     "fan@example.com",
		Token:     "tok",
		Verified:  true,
		ExpiresAt: testNow.Add(30 * time.Minute),
	}))

	_, err = env.createLead.Execute(ctx, validLeadInput("fan@example.com"))
	assert.NoError(t, err)
}

func TestCreateLeadSurvivesPublishFailure(t *testing.T) {
	env := newTestEnv(testNow)
	pub := new(MockPublisher)
	pub.On("PublishLeadCreated", mock.Anything, mock.Anything).Return(errors.New("broker down"))
	env.createLead.Queue = pub

	lead, err := env.createLead.Execute(context.Background(), validLeadInput("fan@example.com"))
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	pub.AssertExpectations(t)
}

func TestCreateLeadWithoutQueue(t *testing.T) {
	env := newTestEnv(testNow)
	env.createLead.Queue = nil
	env.createLead.Clock = clock.NewFixed(testNow.Add(time.Hour))

	_, err := env.createLead.Execute(context.Background(), validLeadInput("fan@example.com"))
	assert.NoError(t, err)
}

func TestCreateLeadConcurrentSubmissionsOnlyOneAccepted(t *testing.T) {
	env := newTestEnv(testNow)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 5)
	for n := 0; n < 5; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.createLead.Execute(ctx, validLeadInput("fan@example.com"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	created := 0
	for err := range errs {
		if err == nil {
			created++
			continue
		}
		var rl *RateLimitedError
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, "cooldown", rl.Reason)
	}
	assert.Equal(t, 1, created)

	leads, err := env.store.Leads().FindByEmailSince(ctx, "fan@example.com", testNow.Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}
