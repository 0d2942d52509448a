// Package model defines domain entities for the application.
package model

import (
	"errors"
	"fmt"
	"time"
)

// Plan is a subscription tier governing daily quota enforcement.
type Plan string

// Known plans.
const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
)

// ErrUnknownPlan indicates a plan value outside the known set.
var ErrUnknownPlan = errors.New("unknown plan")

// ParsePlan converts a stored plan string to a Plan.
func ParsePlan(s string) (Plan, error) {
	switch Plan(s) {
	case PlanFree, PlanPro:
		return Plan(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPlan, s)
	}
}

// Unlimited reports whether the plan is exempt from the daily quota.
// Usage is still tracked for unlimited plans.
func (p Plan) Unlimited() bool {
	return p == PlanPro
}

// User is one registered API caller and its usage record.
// The usage fields are mutated only by the quota gate, exactly once
// per accepted request.
type User struct {
	ID        string `json:"id"`
	KeyHash   string `json:"-"` // Argon2id hash, never serialize
	KeyPrefix string `json:"key_prefix"`
	Plan      Plan   `json:"plan"`

	// RequestsToday is only meaningful relative to LastRequestDate.
	// A record whose LastRequestDate is not today counts as zero.
	RequestsToday   int        `json:"requests_today"`
	LastRequestDate *time.Time `json:"last_request_date,omitempty"`
	LastRequestTime *time.Time `json:"last_request_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// DateOf truncates a timestamp to its UTC calendar day.
// All day-rollover comparisons in the quota gate go through this.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RequestsOn returns the effective request count for the given day,
// applying the lazy reset: a stale LastRequestDate means zero, no
// matter what the stored counter says.
func (u *User) RequestsOn(day time.Time) int {
	if u.LastRequestDate == nil {
		return 0
	}
	if !u.LastRequestDate.Equal(DateOf(day)) {
		return 0
	}
	return u.RequestsToday
}

// Clone returns a deep copy of the user record.
func (u *User) Clone() *User {
	c := *u
	if u.LastRequestDate != nil {
		d := *u.LastRequestDate
		c.LastRequestDate = &d
	}
	if u.LastRequestTime != nil {
		t := *u.LastRequestTime
		c.LastRequestTime = &t
	}
	return &c
}

// Identity is the authenticated caller injected into the request
// context by the auth middleware. It carries identity only; quota
// state is always read fresh inside the gate's critical section.
type Identity struct {
	UserID    string
	KeyPrefix string
	Plan      Plan
}
