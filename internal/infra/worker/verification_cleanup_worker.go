package worker

import (
	"context"
	"log"
	"time"
)

type ExpiredVerificationPurger interface {
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// VerificationCleanupWorker deletes email verification records whose token
// has expired. Until then the record still counts as verified and carries the
// send counter, so nothing is removed early.
type VerificationCleanupWorker struct {
	repo         ExpiredVerificationPurger
	now          func() time.Time
	tickInterval time.Duration
}

func NewVerificationCleanupWorker(repo ExpiredVerificationPurger, now func() time.Time) *VerificationCleanupWorker {
	return &VerificationCleanupWorker{
		repo:         repo,
		now:          now,
		tickInterval: 10 * time.Minute,
	}
}

func (w *VerificationCleanupWorker) Start(ctx context.Context) {
	log.Println("🕒 Verification cleanup worker started")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.purge(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Verification cleanup worker stopped")
			return
		case <-ticker.C:
			w.purge(ctx)
		}
	}
}

func (w *VerificationCleanupWorker) purge(ctx context.Context) int64 {
	n, err := w.repo.DeleteExpired(ctx, w.now())
	if err != nil {
		log.Printf("❌ failed to purge expired verifications: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("✅ %d expired verification(s) purged", n)
	}
	return n
}
