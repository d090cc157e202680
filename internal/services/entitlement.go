package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mindnotes/mindnotes-backend/internal/models"
)

// Denial reasons surfaced to clients so the app can show the right upsell.
const (
	DenialNeverSubscribed     = "never_subscribed"
	DenialTrialExpired        = "trial_expired"
	DenialSubscriptionExpired = "subscription_expired"
)

// Entitlement is the access decision for premium features.
type Entitlement struct {
	IsEntitled    bool   `json:"is_entitled"`
	Plan          string `json:"plan"`
	Status        string `json:"status,omitempty"`
	OnTrial       bool   `json:"on_trial"`
	TrialDaysLeft int    `json:"trial_days_left,omitempty"`
	DenialReason  string `json:"denial_reason,omitempty"`
}

// EntitlementService decides premium access from subscriptions and trials.
type EntitlementService struct {
	db        *sql.DB
	trialDays int
}

func NewEntitlementService(db *sql.DB, trialDays int) *EntitlementService {
	return &EntitlementService{db: db, trialDays: trialDays}
}

// GetSubscription returns the user's subscription, or nil when they never
// subscribed.
func (s *EntitlementService) GetSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, plan, status, started_at, expires_at, canceled_at,
			trial_started_at, trial_ends_at, auto_renew
		FROM subscriptions WHERE user_id = $1`, userID)

	var sub models.Subscription
	err := row.Scan(&sub.ID, &sub.UserID, &sub.Plan, &sub.Status, &sub.StartedAt,
		&sub.ExpiresAt, &sub.CanceledAt, &sub.TrialStartedAt, &sub.TrialEndsAt, &sub.AutoRenew)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load subscription: %w", err)
	}
	return &sub, nil
}

// Check resolves the user's premium entitlement. The free-tier result carries
// a denial reason distinguishing never-subscribed from lapsed states.
func (s *EntitlementService) Check(ctx context.Context, userID uuid.UUID, now time.Time) (Entitlement, error) {
	sub, err := s.GetSubscription(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if sub == nil {
		return Entitlement{
			Plan:         models.PlanFree,
			DenialReason: DenialNeverSubscribed,
		}, nil
	}

	ent := Entitlement{Plan: sub.Plan, Status: sub.Status}

	if sub.Status == models.SubscriptionTrial {
		if sub.TrialEndsAt != nil && sub.TrialEndsAt.After(now) {
			ent.IsEntitled = true
			ent.OnTrial = true
			ent.TrialDaysLeft = int(sub.TrialEndsAt.Sub(now).Hours()/24) + 1
			return ent, nil
		}
		ent.DenialReason = DenialTrialExpired
		return ent, nil
	}

	if sub.IsPro(now) {
		ent.IsEntitled = true
		return ent, nil
	}

	ent.DenialReason = DenialSubscriptionExpired
	return ent, nil
}

// GetOrCreateTrial returns the user's premium feature trial, creating one on
// first touch. The trial grants the guided reflection flows for a fixed
// number of days.
func (s *EntitlementService) GetOrCreateTrial(ctx context.Context, userID uuid.UUID, now time.Time) (*models.PremiumTrial, error) {
	trial, err := s.getTrial(ctx, userID)
	if err != nil {
		return nil, err
	}
	if trial != nil {
		return trial, nil
	}

	endsAt := now.AddDate(0, 0, s.trialDays)
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO premium_trials (id, user_id, trial_started_at, trial_ends_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET user_id = premium_trials.user_id
		RETURNING id, user_id, trial_started_at, trial_ends_at, trial_expired, converted_to_paid,
			morning_charge_count, brain_dump_count, gratitude_pause_count`,
		uuid.New(), userID, now, endsAt)

	trial = &models.PremiumTrial{}
	if err := row.Scan(&trial.ID, &trial.UserID, &trial.TrialStartedAt, &trial.TrialEndsAt,
		&trial.TrialExpired, &trial.ConvertedToPaid,
		&trial.MorningChargeCount, &trial.BrainDumpCount, &trial.GratitudePauseCount); err != nil {
		return nil, fmt.Errorf("create trial: %w", err)
	}
	return trial, nil
}

func (s *EntitlementService) getTrial(ctx context.Context, userID uuid.UUID) (*models.PremiumTrial, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, trial_started_at, trial_ends_at, trial_expired, converted_to_paid,
			morning_charge_count, brain_dump_count, gratitude_pause_count
		FROM premium_trials WHERE user_id = $1`, userID)

	trial := &models.PremiumTrial{}
	err := row.Scan(&trial.ID, &trial.UserID, &trial.TrialStartedAt, &trial.TrialEndsAt,
		&trial.TrialExpired, &trial.ConvertedToPaid,
		&trial.MorningChargeCount, &trial.BrainDumpCount, &trial.GratitudePauseCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load trial: %w", err)
	}
	return trial, nil
}

// IncrementTrialUsage bumps the per-flow usage counter on the trial record.
func (s *EntitlementService) IncrementTrialUsage(ctx context.Context, userID uuid.UUID, flow string) error {
	var column string
	switch flow {
	case models.FlowMorningCharge:
		column = "morning_charge_count"
	case models.FlowBrainDump:
		column = "brain_dump_count"
	case models.FlowGratitudePause:
		column = "gratitude_pause_count"
	default:
		return fmt.Errorf("unknown flow %q", flow)
	}

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE premium_trials SET %s = %s + 1
		WHERE user_id = $1`, column, column), userID)
	if err != nil {
		return fmt.Errorf("increment trial usage: %w", err)
	}
	return nil
}

// CheckFlowAccess combines the subscription entitlement with the feature
// trial: entitled users pass outright, everyone else rides the trial while
// it lasts.
func (s *EntitlementService) CheckFlowAccess(ctx context.Context, userID uuid.UUID, now time.Time) (Entitlement, *models.PremiumTrial, error) {
	ent, err := s.Check(ctx, userID, now)
	if err != nil {
		return Entitlement{}, nil, err
	}
	if ent.IsEntitled {
		return ent, nil, nil
	}

	trial, err := s.GetOrCreateTrial(ctx, userID, now)
	if err != nil {
		return Entitlement{}, nil, err
	}
	if trial.IsTrialActive(now) {
		ent.IsEntitled = true
		ent.OnTrial = true
		ent.TrialDaysLeft = trial.DaysRemaining(now)
		ent.DenialReason = ""
		return ent, trial, nil
	}
	if ent.DenialReason == DenialNeverSubscribed {
		ent.DenialReason = DenialTrialExpired
	}
	return ent, trial, nil
}
