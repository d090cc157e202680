package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mindnotes/mindnotes-backend/internal/models"
)

// TodayStats are the current day's activity counters.
type TodayStats struct {
	JournalEntries  int `json:"journal_entries"`
	MoodCheckins    int `json:"mood_checkins"`
	FocusMinutes    int `json:"focus_minutes"`
	PromptsAnswered int `json:"prompts_answered"`
}

// ActiveProgram pairs an in-flight enrollment with its catalog program.
type ActiveProgram struct {
	Enrollment *models.Enrollment   `json:"enrollment"`
	Program    *models.FocusProgram `json:"program"`
}

// Dashboard is the aggregate view the mobile home screen renders from one
// request. Sections that fail to load come back zero-valued rather than
// failing the whole response.
type Dashboard struct {
	Greeting      string                 `json:"greeting"`
	Profile       *models.UserProfile    `json:"profile,omitempty"`
	Entitlement   Entitlement            `json:"entitlement"`
	TodayPrompts  *models.DailyPromptSet `json:"today_prompts,omitempty"`
	ActiveSession *models.FocusSession   `json:"active_session,omitempty"`
	ActiveProgram *ActiveProgram         `json:"active_program"`
	MoodOptions   []models.MoodCategory  `json:"mood_options"`
	TodayStats    TodayStats             `json:"today_stats"`
	RecentEntries []models.JournalEntry  `json:"recent_entries"`
	RecentMoods   []models.MoodEntry     `json:"recent_moods"`
	MoodSummary   []MoodSummary          `json:"mood_summary"`
	PromptStreak  int                    `json:"prompt_streak"`
}

// DashboardService assembles the home view, serving from cache when fresh.
type DashboardService struct {
	users       *UserService
	entitlement *EntitlementService
	journals    *JournalService
	moods       *MoodService
	sessions    *SessionService
	programs    *ProgramService
	prompts     *PromptService
	cache       *CacheService
	log         zerolog.Logger
}

func NewDashboardService(
	users *UserService,
	entitlement *EntitlementService,
	journals *JournalService,
	moods *MoodService,
	sessions *SessionService,
	programs *ProgramService,
	prompts *PromptService,
	cache *CacheService,
	log zerolog.Logger,
) *DashboardService {
	return &DashboardService{
		users:       users,
		entitlement: entitlement,
		journals:    journals,
		moods:       moods,
		sessions:    sessions,
		programs:    programs,
		prompts:     prompts,
		cache:       cache,
		log:         log,
	}
}

// greetingFor picks a time-of-day salutation, personalized with the user's
// first name when one is on file.
func greetingFor(fullName string, hour int) string {
	greeting := "Good evening"
	switch {
	case hour < 12:
		greeting = "Good morning"
	case hour < 17:
		greeting = "Good afternoon"
	}
	if first := strings.Fields(fullName); len(first) > 0 {
		return greeting + ", " + first[0]
	}
	return greeting
}

// Load builds the dashboard. The active session is always fetched live so a
// running timer can never be stale; everything else may come from cache.
func (d *DashboardService) Load(ctx context.Context, userID uuid.UUID) (*Dashboard, error) {
	key := CacheKey("dashboard", userID.String())

	dash := &Dashboard{
		RecentEntries: []models.JournalEntry{},
		RecentMoods:   []models.MoodEntry{},
		MoodSummary:   []MoodSummary{},
		MoodOptions:   []models.MoodCategory{},
	}
	cached := false
	if hit, err := d.cache.Get(ctx, key, dash); err == nil && hit {
		cached = true
	}

	uid := userID.String()
	now := time.Now().UTC()

	if !cached {
		user, err := d.users.Get(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("dashboard user: %w", err)
		}
		dash.Greeting = greetingFor(user.FullName, now.Hour())

		profile, err := d.users.Profile(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("dashboard profile: %w", err)
		}
		dash.Profile = profile

		ent, err := d.entitlement.Check(ctx, userID, now)
		if err != nil {
			return nil, fmt.Errorf("dashboard entitlement: %w", err)
		}
		dash.Entitlement = ent

		if set, err := d.prompts.TodaySet(ctx, uid); err == nil {
			dash.TodayPrompts = set
		} else {
			d.log.Warn().Err(err).Str("user_id", uid).Msg("dashboard prompts unavailable")
		}

		if enrollment, program, err := d.programs.ActiveEnrollment(ctx, userID); err == nil {
			if enrollment != nil {
				dash.ActiveProgram = &ActiveProgram{Enrollment: enrollment, Program: program}
			}
		} else {
			d.log.Warn().Err(err).Str("user_id", uid).Msg("dashboard program unavailable")
		}

		if categories, err := d.moods.Categories(ctx); err == nil {
			dash.MoodOptions = categories
		} else {
			d.log.Warn().Err(err).Msg("dashboard mood options unavailable")
		}

		if entries, _, err := d.journals.List(ctx, uid, ListFilter{}, 1, 5); err == nil {
			dash.RecentEntries = entries
		} else {
			d.log.Warn().Err(err).Str("user_id", uid).Msg("dashboard entries unavailable")
		}

		if moodEntries, _, err := d.moods.List(ctx, uid, nil, nil, 1, 5); err == nil {
			dash.RecentMoods = moodEntries
		} else {
			d.log.Warn().Err(err).Str("user_id", uid).Msg("dashboard moods unavailable")
		}

		if summary, err := d.moods.Summary(ctx, uid, 7); err == nil {
			dash.MoodSummary = summary
		}

		if streak, err := d.prompts.Streak(ctx, uid); err == nil {
			dash.PromptStreak = streak
		}

		dash.TodayStats = d.todayStats(ctx, uid, dash.TodayPrompts, now)

		if err := d.cache.Set(ctx, key, dash); err != nil {
			d.log.Warn().Err(err).Msg("dashboard cache write failed")
		}
	}

	// Never cached: a stale timer is worse than an extra query.
	if session, err := d.sessions.Active(ctx, uid); err == nil {
		dash.ActiveSession = session
	} else {
		dash.ActiveSession = nil
	}

	return dash, nil
}

// todayStats counts the day's activity. Each counter degrades to zero on a
// failed read instead of failing the aggregate.
func (d *DashboardService) todayStats(ctx context.Context, uid string, prompts *models.DailyPromptSet, now time.Time) TodayStats {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	stats := TodayStats{}

	if _, total, err := d.journals.List(ctx, uid, ListFilter{From: &start}, 1, 1); err == nil {
		stats.JournalEntries = int(total)
	}
	if _, total, err := d.moods.List(ctx, uid, &start, nil, 1, 1); err == nil {
		stats.MoodCheckins = int(total)
	}
	if minutes, err := d.sessions.FocusMinutesSince(ctx, uid, start); err == nil {
		stats.FocusMinutes = minutes
	}
	if prompts != nil {
		stats.PromptsAnswered = len(prompts.CompletedPromptIDs)
	}
	return stats
}

// Invalidate drops the cached dashboard after a write that changes it.
func (d *DashboardService) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := d.cache.Delete(ctx, CacheKey("dashboard", userID.String())); err != nil {
		d.log.Warn().Err(err).Msg("dashboard cache invalidation failed")
	}
}
