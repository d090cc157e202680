package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mindnotes/mindnotes-backend/internal/models"
)

// ProfileSummary is the profile screen aggregate: account, counters,
// subscription state and streaks in one payload.
type ProfileSummary struct {
	User          *models.User          `json:"user"`
	Profile       *models.UserProfile   `json:"profile"`
	Entitlement   Entitlement           `json:"entitlement"`
	PlanName      string                `json:"plan_name"`
	PremiumStreak *models.PremiumStreak `json:"premium_streak,omitempty"`
}

// ProfileService assembles and repairs the profile view. Counters in the
// relational ledger are best-effort denormalizations; Recompute rebuilds them
// from the source documents.
type ProfileService struct {
	users       *UserService
	entitlement *EntitlementService
	journals    *JournalService
	reflections *ReflectionService
	cache       *CacheService
	log         zerolog.Logger
}

func NewProfileService(
	users *UserService,
	entitlement *EntitlementService,
	journals *JournalService,
	reflections *ReflectionService,
	cache *CacheService,
	log zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		users:       users,
		entitlement: entitlement,
		journals:    journals,
		reflections: reflections,
		cache:       cache,
		log:         log,
	}
}

// Load builds the profile summary, serving from cache when fresh.
func (p *ProfileService) Load(ctx context.Context, userID uuid.UUID) (*ProfileSummary, error) {
	key := CacheKey("profile", userID.String())

	summary := &ProfileSummary{}
	if hit, err := p.cache.Get(ctx, key, summary); err == nil && hit {
		return summary, nil
	}

	now := time.Now().UTC()

	user, err := p.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.User = user

	profile, err := p.users.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary.Profile = profile

	ent, err := p.entitlement.Check(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	summary.Entitlement = ent

	sub, err := p.entitlement.GetSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		summary.PlanName = sub.PlanDisplayName()
	} else {
		summary.PlanName = "Free Plan"
	}

	if streaks, err := p.reflections.Streaks(ctx, userID.String()); err == nil {
		summary.PremiumStreak = streaks
	} else {
		p.log.Warn().Err(err).Str("user_id", userID.String()).Msg("premium streaks unavailable")
	}

	if err := p.cache.Set(ctx, key, summary); err != nil {
		p.log.Warn().Err(err).Msg("profile cache write failed")
	}
	return summary, nil
}

// Recompute rebuilds the journal streak counters from the entry documents and
// writes them back to the profile row. Used when the denormalized counters
// drift from the source of truth.
func (p *ProfileService) Recompute(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	days, err := p.journals.CompletionDays(ctx, userID.String())
	if err != nil {
		return nil, err
	}
	total, err := p.journals.Count(ctx, userID.String())
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	current := CurrentStreak(days, now)

	profile, err := p.users.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	longest := LongestStreak(profile.LongestStreak, current)

	var lastDay *time.Time
	for i := range days {
		d := dateOnly(days[i])
		if lastDay == nil || d.After(*lastDay) {
			lastDay = &d
		}
	}

	_, err = p.users.pg.ExecContext(ctx, `
		UPDATE user_profiles
		SET total_entries = $2, current_streak = $3, longest_streak = $4,
			last_completion_date = $5, updated_at = NOW()
		WHERE user_id = $1`,
		userID, total, current, longest, lastDay)
	if err != nil {
		return nil, fmt.Errorf("write recomputed counters: %w", err)
	}

	p.InvalidateAll(ctx, userID)
	return p.users.Profile(ctx, userID)
}

// InvalidateAll drops every cached view for the user.
func (p *ProfileService) InvalidateAll(ctx context.Context, userID uuid.UUID) {
	if err := p.cache.InvalidateUser(ctx, userID.String()); err != nil {
		p.log.Warn().Err(err).Msg("cache invalidation failed")
	}
}
