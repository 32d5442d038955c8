// workers/challenge_expiry.go
package workers

import (
	"context"
	"log"
	"time"

	"connect-game-engine/services"

	"github.com/go-co-op/gocron/v2"
)

// DefaultChallengeTTL is how long a challenge stays open before the sweep
// expires it. The engine itself never runs timers — expiry is this worker's
// policy, applied through the same conditional update as a cancel.
const DefaultChallengeTTL = 30 * time.Second

const sweepInterval = 5 * time.Second

// ChallengeExpiryWorker periodically expires stale pending challenges.
type ChallengeExpiryWorker struct {
	Challenges *services.ChallengeService
	TTL        time.Duration
}

func NewChallengeExpiryWorker(challenges *services.ChallengeService, ttl time.Duration) *ChallengeExpiryWorker {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	return &ChallengeExpiryWorker{Challenges: challenges, TTL: ttl}
}

// Start runs the sweep until ctx is cancelled.
func (w *ChallengeExpiryWorker) Start(ctx context.Context) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("[ExpiryWorker] failed to create scheduler: %v", err)
		return
	}

	_, err = sched.NewJob(
		gocron.DurationJob(sweepInterval),
		gocron.NewTask(func() {
			expired, err := w.Challenges.ExpireStale(w.TTL)
			if err != nil {
				log.Printf("[ExpiryWorker] sweep failed: %v", err)
				return
			}
			if expired > 0 {
				log.Printf("⏰ [ExpiryWorker] expired %d stale challenge(s)", expired)
			}
		}),
	)
	if err != nil {
		log.Printf("[ExpiryWorker] failed to schedule sweep: %v", err)
		return
	}

	sched.Start()
	<-ctx.Done()
	if err := sched.Shutdown(); err != nil {
		log.Printf("[ExpiryWorker] shutdown error: %v", err)
	}
}
