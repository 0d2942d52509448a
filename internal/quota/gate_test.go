package quota

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/briefly/briefly/internal/model"
)

var baseTime = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, store *MemoryStore, u *model.User) {
	t.Helper()
	if u.ID == "" {
		u.ID = "user-1"
	}
	if u.Plan == "" {
		u.Plan = model.PlanFree
	}
	store.Put(u)
}

func mustGet(t *testing.T, store *MemoryStore, id string) *model.User {
	t.Helper()
	rec, ok := store.Get(id)
	if !ok {
		t.Fatalf("user %q not found in store", id)
	}
	return rec
}

func TestGate_Admit_FreshUser(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	seedUser(t, store, &model.User{ID: "user-1"})
	gate := NewGate(store, DefaultDailyLimit)

	res, err := gate.Admit(context.Background(), "user-1", baseTime)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}

	if res.User.RequestsToday != 1 {
		t.Errorf("requests_today = %d, want 1", res.User.RequestsToday)
	}
	if res.User.LastRequestDate == nil || !res.User.LastRequestDate.Equal(model.DateOf(baseTime)) {
		t.Errorf("last_request_date = %v, want %v", res.User.LastRequestDate, model.DateOf(baseTime))
	}
	if res.User.LastRequestTime == nil || !res.User.LastRequestTime.Equal(baseTime) {
		t.Errorf("last_request_time = %v, want %v", res.User.LastRequestTime, baseTime)
	}
	if res.Remaining != DefaultDailyLimit-1 {
		t.Errorf("remaining = %d, want %d", res.Remaining, DefaultDailyLimit-1)
	}
}

func TestGate_Admit_RateLimited(t *testing.T) {
	t.Parallel()

	last := baseTime
	testCases := []struct {
		name    string
		elapsed time.Duration
		plan    model.Plan
		wantErr error
	}{
		{name: "immediately after", elapsed: 0, plan: model.PlanFree, wantErr: ErrRateLimited},
		{name: "half a second", elapsed: 500 * time.Millisecond, plan: model.PlanFree, wantErr: ErrRateLimited},
		{name: "999ms", elapsed: 999 * time.Millisecond, plan: model.PlanFree, wantErr: ErrRateLimited},
		{name: "exactly one second allowed", elapsed: time.Second, plan: model.PlanFree, wantErr: nil},
		{name: "above one second", elapsed: 1001 * time.Millisecond, plan: model.PlanFree, wantErr: nil},
		{name: "pro plan is rate limited too", elapsed: 100 * time.Millisecond, plan: model.PlanPro, wantErr: ErrRateLimited},
		{name: "clock skew rejects", elapsed: -2 * time.Second, plan: model.PlanFree, wantErr: ErrRateLimited},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := NewMemoryStore()
			date := model.DateOf(last)
			ts := last
			seedUser(t, store, &model.User{
				ID:              "user-1",
				Plan:            tc.plan,
				RequestsToday:   5,
				LastRequestDate: &date,
				LastRequestTime: &ts,
			})
			gate := NewGate(store, DefaultDailyLimit)

			res, err := gate.Admit(context.Background(), "user-1", last.Add(tc.elapsed))
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Admit err = %v, want %v", err, tc.wantErr)
			}

			rec := mustGet(t, store, "user-1")
			if tc.wantErr != nil {
				// Rejection must not mutate the record.
				if rec.RequestsToday != 5 {
					t.Errorf("requests_today mutated on rejection: %d", rec.RequestsToday)
				}
				if !rec.LastRequestTime.Equal(last) {
					t.Errorf("last_request_time mutated on rejection: %v", rec.LastRequestTime)
				}
				if res.RetryAfter <= 0 {
					t.Errorf("retry_after = %v, want > 0", res.RetryAfter)
				}
				return
			}
			if rec.RequestsToday != 6 {
				t.Errorf("requests_today = %d, want 6", rec.RequestsToday)
			}
		})
	}
}

func TestGate_Admit_QuotaExceeded(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	date := model.DateOf(baseTime)
	ts := baseTime.Add(-time.Minute)
	seedUser(t, store, &model.User{
		ID:              "user-1",
		Plan:            model.PlanFree,
		RequestsToday:   DefaultDailyLimit,
		LastRequestDate: &date,
		LastRequestTime: &ts,
	})
	gate := NewGate(store, DefaultDailyLimit)

	res, err := gate.Admit(context.Background(), "user-1", baseTime)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Admit err = %v, want ErrQuotaExceeded", err)
	}
	if res.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", res.Remaining)
	}

	rec := mustGet(t, store, "user-1")
	if rec.RequestsToday != DefaultDailyLimit {
		t.Errorf("requests_today mutated on rejection: %d", rec.RequestsToday)
	}
	if !rec.LastRequestTime.Equal(ts) {
		t.Errorf("last_request_time mutated on rejection: %v", rec.LastRequestTime)
	}
}

func TestGate_Admit_RateLimitWinsOverQuota(t *testing.T) {
	t.Parallel()

	// Over quota AND inside the spacing window: the spacing rejection
	// is reported, never merged with the quota one.
	store := NewMemoryStore()
	date := model.DateOf(baseTime)
	ts := baseTime.Add(-200 * time.Millisecond)
	seedUser(t, store, &model.User{
		ID:              "user-1",
		Plan:            model.PlanFree,
		RequestsToday:   DefaultDailyLimit,
		LastRequestDate: &date,
		LastRequestTime: &ts,
	})
	gate := NewGate(store, DefaultDailyLimit)

	_, err := gate.Admit(context.Background(), "user-1", baseTime)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Admit err = %v, want ErrRateLimited", err)
	}
}

func TestGate_Admit_ProPlanNeverQuotaLimited(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	date := model.DateOf(baseTime)
	ts := baseTime.Add(-time.Hour)
	seedUser(t, store, &model.User{
		ID:              "user-1",
		Plan:            model.PlanPro,
		RequestsToday:   1000,
		LastRequestDate: &date,
		LastRequestTime: &ts,
	})
	gate := NewGate(store, DefaultDailyLimit)

	res, err := gate.Admit(context.Background(), "user-1", baseTime)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}
	if res.Limit != 0 {
		t.Errorf("limit = %d, want 0 (unlimited)", res.Limit)
	}
	if res.User.RequestsToday != 1001 {
		t.Errorf("requests_today = %d, want 1001 (usage still tracked)", res.User.RequestsToday)
	}
}

func TestGate_Admit_LazyResetOnNewDay(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	yesterday := model.DateOf(baseTime).AddDate(0, 0, -1)
	ts := yesterday.Add(20 * time.Hour)
	seedUser(t, store, &model.User{
		ID:              "user-1",
		Plan:            model.PlanFree,
		RequestsToday:   DefaultDailyLimit, // maxed out yesterday
		LastRequestDate: &yesterday,
		LastRequestTime: &ts,
	})
	gate := NewGate(store, DefaultDailyLimit)

	res, err := gate.Admit(context.Background(), "user-1", baseTime)
	if err != nil {
		t.Fatalf("Admit: %v", err)
	}

	if res.User.RequestsToday != 1 {
		t.Errorf("requests_today = %d, want exactly 1 after rollover", res.User.RequestsToday)
	}
	if !res.User.LastRequestDate.Equal(model.DateOf(baseTime)) {
		t.Errorf("last_request_date = %v, want today", res.User.LastRequestDate)
	}
}

func TestGate_Admit_SequentialCountsMatch(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	seedUser(t, store, &model.User{ID: "user-1"})
	gate := NewGate(store, DefaultDailyLimit)

	const n = 10
	var lastTS time.Time
	for i := 0; i < n; i++ {
		now := baseTime.Add(time.Duration(i) * 2 * time.Second)
		res, err := gate.Admit(context.Background(), "user-1", now)
		if err != nil {
			t.Fatalf("Admit #%d: %v", i+1, err)
		}
		if res.User.RequestsToday != i+1 {
			t.Fatalf("after %d requests, requests_today = %d", i+1, res.User.RequestsToday)
		}
		if res.User.LastRequestTime.Before(lastTS) {
			t.Fatalf("last_request_time went backwards: %v < %v", res.User.LastRequestTime, lastTS)
		}
		lastTS = *res.User.LastRequestTime
	}

	rec := mustGet(t, store, "user-1")
	if rec.RequestsToday != n {
		t.Errorf("final requests_today = %d, want %d", rec.RequestsToday, n)
	}
	if !rec.LastRequestTime.Equal(baseTime.Add((n - 1) * 2 * time.Second)) {
		t.Errorf("final last_request_time = %v", rec.LastRequestTime)
	}
}

func TestGate_Admit_TwentyThenQuotaExceeded(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	seedUser(t, store, &model.User{ID: "user-1"})
	gate := NewGate(store, DefaultDailyLimit)

	for i := 0; i < DefaultDailyLimit; i++ {
		now := baseTime.Add(time.Duration(i) * 2 * time.Second)
		if _, err := gate.Admit(context.Background(), "user-1", now); err != nil {
			t.Fatalf("request %d should be allowed: %v", i+1, err)
		}
	}

	now := baseTime.Add(time.Duration(DefaultDailyLimit) * 2 * time.Second)
	_, err := gate.Admit(context.Background(), "user-1", now)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("request %d err = %v, want ErrQuotaExceeded", DefaultDailyLimit+1, err)
	}
}

func TestGate_Admit_ConcurrentSameUser(t *testing.T) {
	t.Parallel()

	// Two admits 0.1s apart must yield exactly one allow and one
	// rate-limit rejection, never two allows, regardless of which
	// goroutine wins the critical section.
	for run := 0; run < 50; run++ {
		store := NewMemoryStore()
		seedUser(t, store, &model.User{ID: "user-1"})
		gate := NewGate(store, DefaultDailyLimit)

		results := make(chan error, 2)
		var wg sync.WaitGroup
		for _, now := range []time.Time{baseTime, baseTime.Add(100 * time.Millisecond)} {
			wg.Add(1)
			go func(now time.Time) {
				defer wg.Done()
				_, err := gate.Admit(context.Background(), "user-1", now)
				results <- err
			}(now)
		}
		wg.Wait()
		close(results)

		var allowed, limited int
		for err := range results {
			switch {
			case err == nil:
				allowed++
			case errors.Is(err, ErrRateLimited):
				limited++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if allowed != 1 || limited != 1 {
			t.Fatalf("run %d: allowed=%d limited=%d, want exactly one of each", run, allowed, limited)
		}

		rec := mustGet(t, store, "user-1")
		if rec.RequestsToday != 1 {
			t.Fatalf("run %d: requests_today = %d, want 1", run, rec.RequestsToday)
		}
	}
}

func TestGate_Admit_ConcurrentDistinctUsers(t *testing.T) {
	t.Parallel()

	// Distinct users never contend: all admits spaced well apart in
	// logical time succeed, and every counter lands on its own total.
	store := NewMemoryStore()
	gate := NewGate(store, DefaultDailyLimit)

	const users = 8
	const perUser = 5
	ids := make([]string, users)
	for i := range ids {
		ids[i] = string(rune('a' + i))
		seedUser(t, store, &model.User{ID: ids[i]})
	}

	var wg sync.WaitGroup
	errs := make(chan error, users*perUser)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			for i := 0; i < perUser; i++ {
				now := baseTime.Add(time.Duration(i) * 2 * time.Second)
				if _, err := gate.Admit(context.Background(), id, now); err != nil {
					errs <- err
				}
			}
		}(id)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	for _, id := range ids {
		rec := mustGet(t, store, id)
		if rec.RequestsToday != perUser {
			t.Errorf("user %s requests_today = %d, want %d", id, rec.RequestsToday, perUser)
		}
	}
}

func TestGate_Admit_UnknownUser(t *testing.T) {
	t.Parallel()

	gate := NewGate(NewMemoryStore(), DefaultDailyLimit)

	if _, err := gate.Admit(context.Background(), "missing", baseTime); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Admit err = %v, want ErrUserNotFound", err)
	}
}

func TestGate_Admit_CustomLimit(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	date := model.DateOf(baseTime)
	ts := baseTime.Add(-time.Minute)
	seedUser(t, store, &model.User{
		ID:              "user-1",
		Plan:            model.PlanFree,
		RequestsToday:   3,
		LastRequestDate: &date,
		LastRequestTime: &ts,
	})
	gate := NewGate(store, 3)

	if _, err := gate.Admit(context.Background(), "user-1", baseTime); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("Admit err = %v, want ErrQuotaExceeded at custom limit", err)
	}
}

func TestNewGate_DefaultsLimit(t *testing.T) {
	t.Parallel()

	gate := NewGate(NewMemoryStore(), 0)
	if gate.DailyLimit() != DefaultDailyLimit {
		t.Errorf("DailyLimit = %d, want %d", gate.DailyLimit(), DefaultDailyLimit)
	}
}
