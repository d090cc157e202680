package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription plans.
const (
	PlanFree       = "free"
	PlanProMonthly = "pro_monthly"
	PlanProYearly  = "pro_yearly"
)

// Subscription statuses.
const (
	SubscriptionActive   = "active"
	SubscriptionTrial    = "trial"
	SubscriptionExpired  = "expired"
	SubscriptionCanceled = "canceled"
)

// Subscription is one-to-one with a user. It is mutated by payment webhooks
// outside this service; here it is only read for entitlement checks.
type Subscription struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	Plan   string `json:"plan"`
	Status string `json:"status"`

	StartedAt  time.Time  `json:"started_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	CanceledAt *time.Time `json:"canceled_at,omitempty"`

	TrialStartedAt *time.Time `json:"trial_started_at,omitempty"`
	TrialEndsAt    *time.Time `json:"trial_ends_at,omitempty"`

	AutoRenew bool `json:"auto_renew"`
}

// IsPro reports whether the subscription grants paid access at the given
// instant. A nil expiry means the subscription does not lapse.
func (s *Subscription) IsPro(now time.Time) bool {
	if s.Plan == PlanFree {
		return false
	}
	switch s.Status {
	case SubscriptionActive:
		return s.ExpiresAt == nil || now.Before(*s.ExpiresAt)
	case SubscriptionTrial:
		return s.TrialEndsAt != nil && now.Before(*s.TrialEndsAt)
	}
	return false
}

// PlanDisplayName returns the user-facing plan label.
func (s *Subscription) PlanDisplayName() string {
	switch s.Plan {
	case PlanProMonthly:
		return "Pro Monthly"
	case PlanProYearly:
		return "Pro Yearly"
	default:
		return "Free Plan"
	}
}

// PremiumTrial is the time-boxed trial for premium guided programs: a fixed
// window from first use, with per-feature usage counters.
type PremiumTrial struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`

	TrialStartedAt  time.Time `json:"trial_started_at"`
	TrialEndsAt     time.Time `json:"trial_ends_at"`
	TrialExpired    bool      `json:"trial_expired"`
	ConvertedToPaid bool      `json:"converted_to_paid"`

	MorningChargeCount  int `json:"morning_charge_count"`
	BrainDumpCount      int `json:"brain_dump_count"`
	GratitudePauseCount int `json:"gratitude_pause_count"`
}

// IsTrialActive reports whether the trial window is still open.
func (t *PremiumTrial) IsTrialActive(now time.Time) bool {
	return now.Before(t.TrialEndsAt)
}

// DaysRemaining returns whole days left in the trial window, floored at zero.
func (t *PremiumTrial) DaysRemaining(now time.Time) int {
	if !now.Before(t.TrialEndsAt) {
		return 0
	}
	return int(t.TrialEndsAt.Sub(now).Hours() / 24)
}
