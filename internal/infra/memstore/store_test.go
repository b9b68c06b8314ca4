package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

var t0 = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

func newLead(id, email string, at time.Time) *entity.Lead {
	l := entity.NewLead("Fan", email, "+91 98765 43210", "", 2, at)
	l.ID = id
	return l
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Leads().Create(ctx, newLead("a", "a@example.com", t0)))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(ctx context.Context) error {
		require.NoError(t, s.Leads().Create(ctx, newLead("b", "b@example.com", t0)))
		require.NoError(t, s.Leads().UpdateStatus(ctx, "a", entity.StatusNew, entity.StatusContacted, t0))
		require.NoError(t, s.History().Append(ctx, entity.NewStatusHistoryEntry("a", nil, entity.StatusNew, entity.ActorSystem, "", t0)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Leads().FindByID(ctx, "b")
	assert.ErrorIs(t, err, entity.ErrLeadNotFound)

	a, err := s.Leads().FindByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNew, a.Status)

	h, err := s.History().ListByLead(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, h)
}

func TestReadOutsideTxWaitsForOpenTx(t *testing.T) {
	s := New()
	ctx := context.Background()
	boom := errors.New("boom")

	written := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithTx(ctx, func(ctx context.Context) error {
			if err := s.Leads().Create(ctx, newLead("b", "b@example.com", t0)); err != nil {
				return err
			}
			close(written)
			<-release
			return boom
		})
	}()
	<-written

	found := make(chan error, 1)
	go func() {
		_, err := s.Leads().FindByID(ctx, "b")
		found <- err
	}()

	select {
	case <-found:
		t.Fatal("read returned while the transaction was still open")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.ErrorIs(t, <-done, boom)
	assert.ErrorIs(t, <-found, entity.ErrLeadNotFound)
}

func TestWithTxNestedJoinsOuter(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.WithTx(ctx, func(ctx context.Context) error {
		return s.WithTx(ctx, func(ctx context.Context) error {
			return s.Leads().Create(ctx, newLead("a", "a@example.com", t0))
		})
	})
	require.NoError(t, err)

	_, err = s.Leads().FindByID(ctx, "a")
	assert.NoError(t, err)
}

func TestUpdateStatusCompareAndSet(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Leads().Create(ctx, newLead("a", "a@example.com", t0)))

	require.NoError(t, s.Leads().UpdateStatus(ctx, "a", entity.StatusNew, entity.StatusContacted, t0))
	assert.ErrorIs(t, s.Leads().UpdateStatus(ctx, "a", entity.StatusNew, entity.StatusLost, t0), entity.ErrStatusChanged)
	assert.ErrorIs(t, s.Leads().UpdateStatus(ctx, "zzz", entity.StatusNew, entity.StatusLost, t0), entity.ErrLeadNotFound)
}

func TestConcurrentStatusUpdatesOnlyOneWins(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Leads().Create(ctx, newLead("a", "a@example.com", t0)))

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for n := 0; n < 10; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- s.WithTx(ctx, func(ctx context.Context) error {
				return s.Leads().UpdateStatus(ctx, "a", entity.StatusNew, entity.StatusContacted, t0)
			})
		}()
	}
	wg.Wait()
	close(results)

	ok := 0
	for err := range results {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, entity.ErrStatusChanged)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestListFiltersAndPaginates(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, s.Leads().Create(ctx, newLead(id, id+"@example.com", t0.Add(time.Duration(i)*time.Hour))))
	}
	require.NoError(t, s.Leads().UpdateStatus(ctx, "b", entity.StatusNew, entity.StatusLost, t0))

	page, total, err := s.Leads().List(ctx, entity.LeadFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	require.Len(t, page, 2)
	assert.Equal(t, "d", page[0].ID)
	assert.Equal(t, "c", page[1].ID)

	page, total, err = s.Leads().List(ctx, entity.LeadFilter{Statuses: []entity.LeadStatus{entity.StatusLost}, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "b", page[0].ID)

	page, _, err = s.Leads().List(ctx, entity.LeadFilter{Limit: 10, Offset: 50})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestFindByEmailSinceNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Leads().Create(ctx, newLead("old", "fan@example.com", t0.Add(-48*time.Hour))))
	require.NoError(t, s.Leads().Create(ctx, newLead("a", "fan@example.com", t0)))
	require.NoError(t, s.Leads().Create(ctx, newLead("b", "fan@example.com", t0.Add(time.Hour))))
	require.NoError(t, s.Leads().Create(ctx, newLead("x", "other@example.com", t0)))

	leads, err := s.Leads().FindByEmailSince(ctx, "FAN@example.com", t0.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "b", leads[0].ID)
	assert.Equal(t, "a", leads[1].ID)
}

func TestQuoteResponseOnlyOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Quotes().Create(ctx, &entity.Quote{ID: "q", LeadID: "a", UserResponse: entity.ResponsePending}))

	require.NoError(t, s.Quotes().UpdateResponse(ctx, "q", entity.ResponseDeclined, t0))
	assert.ErrorIs(t, s.Quotes().UpdateResponse(ctx, "q", entity.ResponseAccepted, t0), entity.ErrQuoteAlreadyResponded)

	q, err := s.Quotes().FindByID(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, entity.ResponseDeclined, q.UserResponse)
	require.NotNil(t, q.RespondedAt)
}

func TestVerificationsDeleteExpired(t *testing.T) {
	s := New()
	ctx := context.Background()
	repo := s.Verifications()
	require.NoError(t, repo.Save(ctx, &entity.EmailVerification{Email: "a@example.com", Token: "t1", ExpiresAt: t0}))
	require.NoError(t, repo.Save(ctx, &entity.EmailVerification{Email: "b@example.com", Token: "t2", ExpiresAt: t0.Add(2 * time.Hour)}))

	n, err := repo.DeleteExpired(ctx, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = repo.FindByToken(ctx, "t1")
	assert.ErrorIs(t, err, entity.ErrVerificationNotFound)
	v, err := repo.FindByToken(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "b@example.com", v.Email)
}
