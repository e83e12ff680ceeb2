package core

import (
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// QuotaLimiter counts generation-backend calls per user and day. The counter
// is in-process: a restart resets it, which errs in the user's favor.
type QuotaLimiter struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
	cron   *cron.Cron
}

// NewQuotaLimiter creates a limiter allowing limit generation calls per user
// per day, reset at midnight local time. limit <= 0 disables the quota.
func NewQuotaLimiter(limit int) *QuotaLimiter {
	q := &QuotaLimiter{
		limit:  limit,
		counts: make(map[string]int),
	}
	q.cron = cron.New()
	if _, err := q.cron.AddFunc("0 0 * * *", q.Reset); err != nil {
		// the default parser accepts this literal schedule; keep the limiter
		// usable even if that ever changes
		slog.Error("quota: schedule reset", "error", err)
	}
	q.cron.Start()
	return q
}

// Allow records one generation call for userID and reports whether it is
// within today's budget.
func (q *QuotaLimiter) Allow(userID string) bool {
	if q == nil || q.limit <= 0 {
		return true
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.counts[userID] >= q.limit {
		return false
	}
	q.counts[userID]++
	return true
}

// Reset clears all counters.
func (q *QuotaLimiter) Reset() {
	q.mu.Lock()
	q.counts = make(map[string]int)
	q.mu.Unlock()
	slog.Info("quota: daily counters reset")
}

// Stop halts the reset schedule.
func (q *QuotaLimiter) Stop() {
	if q == nil || q.cron == nil {
		return
	}
	q.cron.Stop()
}
