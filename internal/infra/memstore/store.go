// Package memstore keeps every repository in process memory. It backs local
// runs without Postgres and the use case tests.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/xavierca1/matchday-leads/internal/entity"
)

type txKey struct{}

// Store holds all records. Transactions are serialised: WithTx takes an
// exclusive lock, and on error the state is restored to what it was before fn
// ran. Writes outside a transaction take the same lock, and reads outside one
// wait for it, so a rolled-back write is never observed.
type Store struct {
	txMu sync.RWMutex
	mu   sync.RWMutex

	leads         map[string]entity.Lead
	history       []entity.StatusHistoryEntry
	quotes        map[string]entity.Quote
	packages      map[string]entity.Package
	events        map[string]entity.Event
	verifications map[string]entity.EmailVerification
}

func New() *Store {
	return &Store{
		leads:         map[string]entity.Lead{},
		quotes:        map[string]entity.Quote{},
		packages:      map[string]entity.Package{},
		events:        map[string]entity.Event{},
		verifications: map[string]entity.EmailVerification{},
	}
}

type snapshot struct {
	leads         map[string]entity.Lead
	history       []entity.StatusHistoryEntry
	quotes        map[string]entity.Quote
	verifications map[string]entity.EmailVerification
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func inTx(ctx context.Context) bool {
	v, _ := ctx.Value(txKey{}).(bool)
	return v
}

// write runs fn under the data lock, joining the caller's transaction when
// there is one.
func (s *Store) write(ctx context.Context, fn func() error) error {
	if !inTx(ctx) {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// read takes the data lock for reading and returns its release. Outside a
// transaction it also holds off any transaction until the read is done.
func (s *Store) read(ctx context.Context) func() {
	joined := inTx(ctx)
	if !joined {
		s.txMu.RLock()
	}
	s.mu.RLock()
	return func() {
		s.mu.RUnlock()
		if !joined {
			s.txMu.RUnlock()
		}
	}
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		leads:         maps.Clone(s.leads),
		history:       slices.Clone(s.history),
		quotes:        maps.Clone(s.quotes),
		verifications: maps.Clone(s.verifications),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = snap.leads
	s.history = snap.history
	s.quotes = snap.quotes
	s.verifications = snap.verifications
}

// Ping satisfies the health check.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
