package memstore

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

type LeadRepository struct{ s *Store }

func (s *Store) Leads() *LeadRepository { return &LeadRepository{s} }

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	return r.s.write(ctx, func() error {
		r.s.leads[lead.ID] = cloneLead(*lead)
		return nil
	})
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	defer r.s.read(ctx)()

	l, ok := r.s.leads[id]
	if !ok {
		return nil, entity.ErrLeadNotFound
	}
	out := cloneLead(l)
	return &out, nil
}

// LockEmail has nothing to do here: transactions already run one at a time.
func (r *LeadRepository) LockEmail(ctx context.Context, email string) error {
	return nil
}

func (r *LeadRepository) FindByEmailSince(ctx context.Context, email string, since time.Time) ([]entity.Lead, error) {
	defer r.s.read(ctx)()

	email = entity.NormalizeEmail(email)
	var out []entity.Lead
	for _, l := range r.s.leads {
		if l.Email == email && !l.CreatedAt.Before(since) {
			out = append(out, cloneLead(l))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *LeadRepository) UpdateStatus(ctx context.Context, id string, from, to entity.LeadStatus, at time.Time) error {
	return r.s.write(ctx, func() error {
		l, ok := r.s.leads[id]
		if !ok {
			return entity.ErrLeadNotFound
		}
		if l.Status != from {
			return entity.ErrStatusChanged
		}
		l.Status = to
		l.UpdatedAt = at
		r.s.leads[id] = l
		return nil
	})
}

func (r *LeadRepository) UpdateTripDetails(ctx context.Context, lead *entity.Lead) error {
	return r.s.write(ctx, func() error {
		l, ok := r.s.leads[lead.ID]
		if !ok {
			return entity.ErrLeadNotFound
		}
		updated := cloneLead(*lead)
		l.Travelers = updated.Travelers
		l.PreferredDate = updated.PreferredDate
		l.EventID = updated.EventID
		l.PackageID = updated.PackageID
		l.UpdatedAt = lead.UpdatedAt
		r.s.leads[lead.ID] = l
		return nil
	})
}

func (r *LeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, int, error) {
	defer r.s.read(ctx)()

	var matched []entity.Lead
	for _, l := range r.s.leads {
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, l.Status) {
			continue
		}
		if filter.Email != "" && l.Email != filter.Email {
			continue
		}
		matched = append(matched, cloneLead(l))
	}
	sortNewestFirst(matched)

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

func sortNewestFirst(leads []entity.Lead) {
	slices.SortFunc(leads, func(a, b entity.Lead) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

func cloneLead(l entity.Lead) entity.Lead {
	l.EventID = clonePtr(l.EventID)
	l.PackageID = clonePtr(l.PackageID)
	l.PreferredDate = clonePtr(l.PreferredDate)
	return l
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type HistoryRepository struct{ s *Store }

func (s *Store) History() *HistoryRepository { return &HistoryRepository{s} }

func (r *HistoryRepository) Append(ctx context.Context, entry *entity.StatusHistoryEntry) error {
	return r.s.write(ctx, func() error {
		e := *entry
		e.FromStatus = clonePtr(entry.FromStatus)
		r.s.history = append(r.s.history, e)
		return nil
	})
}

// ListByLead returns entries in the order they were appended, which is also
// timestamp order.
func (r *HistoryRepository) ListByLead(ctx context.Context, leadID string) ([]entity.StatusHistoryEntry, error) {
	defer r.s.read(ctx)()

	var out []entity.StatusHistoryEntry
	for _, e := range r.s.history {
		if e.LeadID == leadID {
			e.FromStatus = clonePtr(e.FromStatus)
			out = append(out, e)
		}
	}
	return out, nil
}

type QuoteRepository struct{ s *Store }

func (s *Store) Quotes() *QuoteRepository { return &QuoteRepository{s} }

func (r *QuoteRepository) Create(ctx context.Context, q *entity.Quote) error {
	return r.s.write(ctx, func() error {
		r.s.quotes[q.ID] = *q
		return nil
	})
}

func (r *QuoteRepository) FindByID(ctx context.Context, id string) (*entity.Quote, error) {
	defer r.s.read(ctx)()

	q, ok := r.s.quotes[id]
	if !ok {
		return nil, entity.ErrQuoteNotFound
	}
	q.RespondedAt = clonePtr(q.RespondedAt)
	return &q, nil
}

func (r *QuoteRepository) ListByLead(ctx context.Context, leadID string) ([]entity.Quote, error) {
	defer r.s.read(ctx)()

	var out []entity.Quote
	for _, q := range r.s.quotes {
		if q.LeadID == leadID {
			q.RespondedAt = clonePtr(q.RespondedAt)
			out = append(out, q)
		}
	}
	slices.SortFunc(out, func(a, b entity.Quote) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (r *QuoteRepository) UpdateResponse(ctx context.Context, id string, response entity.QuoteResponse, at time.Time) error {
	return r.s.write(ctx, func() error {
		q, ok := r.s.quotes[id]
		if !ok {
			return entity.ErrQuoteNotFound
		}
		if q.UserResponse != entity.ResponsePending {
			return entity.ErrQuoteAlreadyResponded
		}
		q.UserResponse = response
		q.RespondedAt = &at
		r.s.quotes[id] = q
		return nil
	})
}

type CatalogRepository struct{ s *Store }

// Catalog serves packages and events. Both are read-only for the service;
// AddEvent and AddPackage seed them.
func (s *Store) Catalog() *CatalogRepository { return &CatalogRepository{s} }

func (r *CatalogRepository) AddEvent(e entity.Event) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.events[e.ID] = e
}

func (r *CatalogRepository) AddPackage(p entity.Package) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.packages[p.ID] = p
}

// Packages and Events adapt the catalog to the two repository interfaces,
// which share the FindByID method name.
func (r *CatalogRepository) Packages() PackageFinder { return PackageFinder{r.s} }
func (r *CatalogRepository) Events() EventFinder     { return EventFinder{r.s} }

type PackageFinder struct{ s *Store }

func (f PackageFinder) FindByID(ctx context.Context, id string) (*entity.Package, error) {
	defer f.s.read(ctx)()
	p, ok := f.s.packages[id]
	if !ok {
		return nil, entity.ErrPackageNotFound
	}
	return &p, nil
}

func (f PackageFinder) ListActiveByEvents(ctx context.Context, eventIDs []string) ([]entity.Package, error) {
	defer f.s.read(ctx)()

	out := []entity.Package{}
	for _, p := range f.s.packages {
		if p.Active && slices.Contains(eventIDs, p.EventID) {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b entity.Package) int {
		if c := a.BasePrice.Cmp(b.BasePrice); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

type EventFinder struct{ s *Store }

func (f EventFinder) FindByID(ctx context.Context, id string) (*entity.Event, error) {
	defer f.s.read(ctx)()
	e, ok := f.s.events[id]
	if !ok {
		return nil, entity.ErrEventNotFound
	}
	return &e, nil
}

func (f EventFinder) List(ctx context.Context, filter entity.EventFilter) ([]entity.Event, error) {
	defer f.s.read(ctx)()

	out := []entity.Event{}
	for _, e := range f.s.events {
		if e.Active != filter.Active {
			continue
		}
		if filter.Featured != nil && e.Featured != *filter.Featured {
			continue
		}
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b entity.Event) int {
		if a.Featured != b.Featured {
			if a.Featured {
				return -1
			}
			return 1
		}
		if c := a.StartDate.Compare(b.StartDate); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

type VerificationRepository struct{ s *Store }

func (s *Store) Verifications() *VerificationRepository { return &VerificationRepository{s} }

func (r *VerificationRepository) FindByEmail(ctx context.Context, email string) (*entity.EmailVerification, error) {
	defer r.s.read(ctx)()
	v, ok := r.s.verifications[entity.NormalizeEmail(email)]
	if !ok {
		return nil, entity.ErrVerificationNotFound
	}
	return &v, nil
}

func (r *VerificationRepository) FindByToken(ctx context.Context, token string) (*entity.EmailVerification, error) {
	defer r.s.read(ctx)()
	for _, v := range r.s.verifications {
		if v.Token == token {
			return &v, nil
		}
	}
	return nil, entity.ErrVerificationNotFound
}

func (r *VerificationRepository) Save(ctx context.Context, v *entity.EmailVerification) error {
	return r.s.write(ctx, func() error {
		r.s.verifications[v.Email] = *v
		return nil
	})
}

func (r *VerificationRepository) Delete(ctx context.Context, email string) error {
	return r.s.write(ctx, func() error {
		delete(r.s.verifications, email)
		return nil
	})
}

func (r *VerificationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	var n int64
	err := r.s.write(ctx, func() error {
		for email, v := range r.s.verifications {
			if v.ExpiresAt.Before(before) {
				delete(r.s.verifications, email)
				n++
			}
		}
		return nil
	})
	return n, err
}
