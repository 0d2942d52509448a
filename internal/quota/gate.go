// Package quota implements the per-user admission gate: a daily
// request quota tiered by plan, a minimum spacing between consecutive
// requests, and lazy day-rollover of the counter.
package quota

import (
	"context"
	"errors"
	"time"

	"github.com/briefly/briefly/internal/model"
)

// Gate errors. RateLimited and QuotaExceeded are distinct, user-visible
// rejection kinds and are never collapsed into one another.
var (
	ErrRateLimited   = errors.New("rate limited")
	ErrQuotaExceeded = errors.New("daily quota exceeded")
	ErrUserNotFound  = errors.New("user not found")
)

const (
	// DefaultDailyLimit is the free-plan daily request cap.
	DefaultDailyLimit = 20
	// minInterval is the required spacing between consecutive accepted
	// requests from one user.
	minInterval = time.Second
)

// Store provides exclusive access to a single user's usage record.
//
// Update runs fn inside a critical section scoped to userID: the record
// passed to fn reflects committed state, and when fn returns save=true
// the mutated record is persisted before the section ends. Concurrent
// Update calls for the same user serialize; calls for different users
// must never block each other.
type Store interface {
	Update(ctx context.Context, userID string, fn func(rec *model.User) (save bool, err error)) error
}

// Gate decides whether a request from a user is admitted, and records
// accepted requests against the user's daily counter.
type Gate struct {
	store      Store
	dailyLimit int
}

// NewGate creates a Gate over the given record store. A non-positive
// dailyLimit falls back to DefaultDailyLimit.
func NewGate(store Store, dailyLimit int) *Gate {
	if dailyLimit <= 0 {
		dailyLimit = DefaultDailyLimit
	}
	return &Gate{store: store, dailyLimit: dailyLimit}
}

// DailyLimit returns the free-plan daily cap the gate enforces.
func (g *Gate) DailyLimit() int {
	return g.dailyLimit
}

// Result describes the outcome of an admission decision.
type Result struct {
	// User is a snapshot of the record after the decision. On an
	// accepted request it reflects the committed update; on a
	// rejection it is unchanged.
	User *model.User
	// Limit is the daily cap applied, 0 for unlimited plans.
	Limit int
	// Remaining is the number of requests left today under Limit.
	// Meaningless when Limit is 0.
	Remaining int
	// RetryAfter is how long to wait before retrying, set on
	// rate-limit rejections.
	RetryAfter time.Duration
	// ResetAt is when the daily window rolls over (next UTC midnight).
	ResetAt time.Time
}

// Admit evaluates the rate limit and daily quota for the user and, if
// both pass, atomically commits the request to the usage record.
//
// Checks run in order inside one critical section per user: spacing
// first (reject iff strictly less than one second since the last
// accepted request; exactly one second is allowed), then the daily cap
// (with the stale counter lazily treated as zero), then the commit.
// Rejections never mutate the record.
//
// A nil error means admitted. ErrRateLimited and ErrQuotaExceeded
// report rejections, with the Result still populated for response
// headers. Any other error is a storage failure and is fatal for the
// request.
func (g *Gate) Admit(ctx context.Context, userID string, now time.Time) (*Result, error) {
	now = now.UTC()
	today := model.DateOf(now)

	res := &Result{
		ResetAt: today.AddDate(0, 0, 1),
	}

	err := g.store.Update(ctx, userID, func(rec *model.User) (bool, error) {
		if !rec.Plan.Unlimited() {
			res.Limit = g.dailyLimit
		}

		// Spacing check first: it applies regardless of plan and wins
		// over the quota check.
		if rec.LastRequestTime != nil {
			elapsed := now.Sub(*rec.LastRequestTime)
			if elapsed < minInterval {
				res.User = rec.Clone()
				res.Remaining = remaining(res.Limit, rec.RequestsOn(now))
				res.RetryAfter = minInterval - elapsed
				return false, ErrRateLimited
			}
		}

		effective := rec.RequestsOn(now)
		if res.Limit > 0 && effective >= res.Limit {
			res.User = rec.Clone()
			res.Remaining = 0
			return false, ErrQuotaExceeded
		}

		// Commit: reset to 1 on day rollover, else increment.
		if rec.LastRequestDate == nil || !rec.LastRequestDate.Equal(today) {
			rec.RequestsToday = 1
			day := today
			rec.LastRequestDate = &day
		} else {
			rec.RequestsToday++
		}
		ts := now
		rec.LastRequestTime = &ts

		res.User = rec.Clone()
		res.Remaining = remaining(res.Limit, rec.RequestsToday)
		return true, nil
	})
	if err != nil {
		if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrQuotaExceeded) {
			return res, err
		}
		return nil, err
	}

	return res, nil
}

func remaining(limit, used int) int {
	if limit <= 0 {
		return 0
	}
	if used >= limit {
		return 0
	}
	return limit - used
}
