package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mindnotes/mindnotes-backend/internal/database"
	"github.com/mindnotes/mindnotes-backend/internal/models"
)

// ReflectionService runs the guided reflection flows. Each flow is scoped to
// a calendar day: starting a flow twice on the same day returns the existing
// session, and completing it advances that flow's streak.
type ReflectionService struct {
	mongo *mongo.Database
}

func NewReflectionService(mdb *mongo.Database) *ReflectionService {
	return &ReflectionService{mongo: mdb}
}

func (s *ReflectionService) sessions() *mongo.Collection {
	return s.mongo.Collection(database.CollReflectionSessions)
}

func (s *ReflectionService) streaks() *mongo.Collection {
	return s.mongo.Collection(database.CollPremiumStreaks)
}

func sessionDate(now time.Time) string {
	return now.Format("2006-01-02")
}

// openFromToday reports whether an open session belongs to the given day.
// Open sessions from earlier days are abandoned timers, not resumable state.
func openFromToday(session *models.ReflectionSession, today string) bool {
	return session.SessionDate == today
}

// Start opens today's session for a flow, or returns the existing one. The
// partial unique index on (user_id, flow) for non-terminal sessions backstops
// concurrent starts.
func (s *ReflectionService) Start(ctx context.Context, userID, flow string, plannedSeconds int) (*models.ReflectionSession, bool, error) {
	if !models.KnownFlow(flow) {
		return nil, false, fmt.Errorf("%w: unknown flow %q", ErrValidation, flow)
	}

	now := time.Now().UTC()
	today := sessionDate(now)

	if existing, err := s.findOpen(ctx, userID, flow); err != nil {
		return nil, false, err
	} else if existing != nil {
		if openFromToday(existing, today) {
			return existing, false, nil
		}
		// A session left open from an earlier day is abandoned, not
		// today's. Cancel it so the unique index admits a fresh one.
		if err := s.cancelStale(ctx, existing, now); err != nil {
			return nil, false, err
		}
	}

	// One completed session per flow per day.
	var done models.ReflectionSession
	err := s.sessions().FindOne(ctx, bson.M{
		"user_id":      userID,
		"flow":         flow,
		"session_date": today,
		"status":       models.SessionCompleted,
	}).Decode(&done)
	if err == nil {
		return &done, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, fmt.Errorf("check completed session: %w", err)
	}

	session := &models.ReflectionSession{
		CreatedAt:              now,
		UpdatedAt:              now,
		UserID:                 userID,
		Flow:                   flow,
		Status:                 models.SessionActive,
		SessionDate:            today,
		PlannedDurationSeconds: plannedSeconds,
		StartedAt:              now,
		Steps:                  map[string]models.StepRecord{},
	}

	res, err := s.sessions().InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			existing, findErr := s.findOpen(ctx, userID, flow)
			if findErr != nil {
				return nil, false, findErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, fmt.Errorf("start reflection: %w", err)
	}
	session.ID = res.InsertedID.(primitive.ObjectID)
	return session, true, nil
}

func (s *ReflectionService) cancelStale(ctx context.Context, session *models.ReflectionSession, now time.Time) error {
	_, err := s.sessions().UpdateByID(ctx, session.ID, bson.M{"$set": bson.M{
		"status":     models.SessionCanceled,
		"ended_at":   now,
		"updated_at": now,
	}})
	if err != nil {
		return fmt.Errorf("cancel stale reflection: %w", err)
	}
	return nil
}

func (s *ReflectionService) findOpen(ctx context.Context, userID, flow string) (*models.ReflectionSession, error) {
	var session models.ReflectionSession
	err := s.sessions().FindOne(ctx, bson.M{
		"user_id": userID,
		"flow":    flow,
		"status":  bson.M{"$in": bson.A{models.SessionActive, models.SessionPaused}},
	}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find open reflection: %w", err)
	}
	return &session, nil
}

// Today returns the flow's session for the current calendar day in any
// state, or nil when the user has not started one.
func (s *ReflectionService) Today(ctx context.Context, userID, flow string) (*models.ReflectionSession, error) {
	if !models.KnownFlow(flow) {
		return nil, fmt.Errorf("%w: unknown flow %q", ErrValidation, flow)
	}
	var session models.ReflectionSession
	err := s.sessions().FindOne(ctx, bson.M{
		"user_id":      userID,
		"flow":         flow,
		"session_date": sessionDate(time.Now().UTC()),
	}, options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find today's reflection: %w", err)
	}
	return &session, nil
}

func (s *ReflectionService) get(ctx context.Context, userID, sessionID string) (*models.ReflectionSession, error) {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, ErrNotFound
	}
	var session models.ReflectionSession
	if err := s.sessions().FindOne(ctx, bson.M{"_id": oid}).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load reflection: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}
	return &session, nil
}

// stepUpdate addresses a step by its fixed name under the steps map, so a
// re-submitted step replaces its record instead of accumulating a duplicate.
func stepUpdate(step string, rec models.StepRecord, now time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"steps." + step: rec,
		"updated_at":    now,
	}}
}

// RecordStep stores one step's payload on the open session. Re-submitting a
// step overwrites its record.
func (s *ReflectionService) RecordStep(ctx context.Context, userID, sessionID, step string, payload map[string]interface{}) (*models.ReflectionSession, error) {
	session, err := s.get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := transitionGuard(session.Status, "step"); err != nil {
		return nil, err
	}
	if !models.KnownStep(session.Flow, step) {
		return nil, fmt.Errorf("%w: step %q does not belong to flow %q", ErrValidation, step, session.Flow)
	}

	now := time.Now().UTC()
	update := stepUpdate(step, models.StepRecord{Payload: payload, CompletedAt: now}, now)
	if _, err := s.sessions().UpdateByID(ctx, session.ID, update); err != nil {
		return nil, fmt.Errorf("record step: %w", err)
	}
	return s.get(ctx, userID, sessionID)
}

// Pause transitions active → paused on the open session.
func (s *ReflectionService) Pause(ctx context.Context, userID, sessionID string) (*models.ReflectionSession, error) {
	session, err := s.get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := transitionGuard(session.Status, "pause"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	update := bson.M{
		"$set":  bson.M{"status": models.SessionPaused, "updated_at": now},
		"$push": bson.M{"pauses": models.PauseInterval{StartedAt: now}},
	}
	if _, err := s.sessions().UpdateByID(ctx, session.ID, update); err != nil {
		return nil, fmt.Errorf("pause reflection: %w", err)
	}
	return s.get(ctx, userID, sessionID)
}

// Resume transitions paused → active and closes the open pause interval.
func (s *ReflectionService) Resume(ctx context.Context, userID, sessionID string) (*models.ReflectionSession, error) {
	session, err := s.get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := transitionGuard(session.Status, "resume"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	set := bson.M{"status": models.SessionActive, "updated_at": now}
	inc := bson.M{}
	if i := session.OpenPause(); i >= 0 {
		pauseLen := int(now.Sub(session.Pauses[i].StartedAt).Seconds())
		set[fmt.Sprintf("pauses.%d.ended_at", i)] = now
		set[fmt.Sprintf("pauses.%d.duration_seconds", i)] = pauseLen
		inc["total_pause_duration_seconds"] = pauseLen
	}
	update := bson.M{"$set": set}
	if len(inc) > 0 {
		update["$inc"] = inc
	}
	if _, err := s.sessions().UpdateByID(ctx, session.ID, update); err != nil {
		return nil, fmt.Errorf("resume reflection: %w", err)
	}
	return s.get(ctx, userID, sessionID)
}

// Complete closes the session and advances the flow's streak. The streak
// carries over from yesterday, holds on a same-day repeat, and resets
// otherwise.
func (s *ReflectionService) Complete(ctx context.Context, userID, sessionID string) (*models.ReflectionSession, *models.FlowStreak, error) {
	session, err := s.get(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := transitionGuard(session.Status, "complete"); err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	paused := time.Duration(session.TotalPauseDurationSeconds) * time.Second
	if i := session.OpenPause(); i >= 0 {
		paused += now.Sub(session.Pauses[i].StartedAt)
	}
	actual := now.Sub(session.StartedAt) - paused
	if actual < 0 {
		actual = 0
	}

	streak, err := s.advanceStreak(ctx, userID, session.Flow, now)
	if err != nil {
		return nil, nil, err
	}

	set := bson.M{
		"status":                  models.SessionCompleted,
		"ended_at":                now,
		"updated_at":              now,
		"actual_duration_seconds": int(actual.Seconds()),
		"current_streak":          streak.CurrentStreak,
	}
	if i := session.OpenPause(); i >= 0 {
		pauseLen := int(now.Sub(session.Pauses[i].StartedAt).Seconds())
		set[fmt.Sprintf("pauses.%d.ended_at", i)] = now
		set[fmt.Sprintf("pauses.%d.duration_seconds", i)] = pauseLen
	}
	if _, err := s.sessions().UpdateByID(ctx, session.ID, bson.M{"$set": set}); err != nil {
		return nil, nil, fmt.Errorf("complete reflection: %w", err)
	}

	updated, err := s.get(ctx, userID, sessionID)
	if err != nil {
		return nil, nil, err
	}
	return updated, streak, nil
}

// Cancel discards the open session without touching the streak.
func (s *ReflectionService) Cancel(ctx context.Context, userID, sessionID string) (*models.ReflectionSession, error) {
	session, err := s.get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := transitionGuard(session.Status, "cancel"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"status":     models.SessionCanceled,
		"ended_at":   now,
		"updated_at": now,
	}}
	if _, err := s.sessions().UpdateByID(ctx, session.ID, update); err != nil {
		return nil, fmt.Errorf("cancel reflection: %w", err)
	}
	return s.get(ctx, userID, sessionID)
}

// Badge thresholds per consecutive-day streak.
var badgeMilestones = []struct {
	days int
	name string
}{
	{3, "3-Day Spark"},
	{7, "One Week Strong"},
	{14, "Two Week Flow"},
	{30, "30-Day Anchor"},
}

func (s *ReflectionService) advanceStreak(ctx context.Context, userID, flow string, now time.Time) (*models.FlowStreak, error) {
	doc := &models.PremiumStreak{}
	err := s.streaks().FindOne(ctx, bson.M{"user_id": userID}).Decode(doc)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("load streaks: %w", err)
	}
	if doc.Flows == nil {
		doc.Flows = map[string]models.FlowStreak{}
	}

	fs := doc.Flows[flow]
	today := sessionDate(now)
	yesterday := sessionDate(now.AddDate(0, 0, -1))

	switch fs.LastCompletionDate {
	case today:
		// Second completion same day, streak unchanged.
	case yesterday:
		fs.CurrentStreak++
		fs.TotalCompleted++
	default:
		fs.CurrentStreak = 1
		fs.TotalCompleted++
	}
	if fs.LastCompletionDate != today {
		fs.LastCompletionDate = today
	}
	if fs.CurrentStreak > fs.LongestStreak {
		fs.LongestStreak = fs.CurrentStreak
	}

	newBadges := []models.Badge{}
	for _, m := range badgeMilestones {
		if fs.CurrentStreak == m.days && !hasBadge(doc.Badges, flow, m.name) {
			newBadges = append(newBadges, models.Badge{
				Name:     m.name,
				Flow:     flow,
				EarnedAt: now,
			})
		}
	}

	update := bson.M{
		"$set": bson.M{
			"flows." + flow: fs,
			"updated_at":    now,
		},
	}
	if len(newBadges) > 0 {
		update["$push"] = bson.M{"badges": bson.M{"$each": newBadges}}
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.streaks().UpdateOne(ctx, bson.M{"user_id": userID}, update, opts); err != nil {
		return nil, fmt.Errorf("save streaks: %w", err)
	}
	return &fs, nil
}

func hasBadge(badges []models.Badge, flow, name string) bool {
	for _, b := range badges {
		if b.Flow == flow && b.Name == name {
			return true
		}
	}
	return false
}

// Streaks returns the user's premium streak document, zero-valued when the
// user has never completed a flow.
func (s *ReflectionService) Streaks(ctx context.Context, userID string) (*models.PremiumStreak, error) {
	doc := &models.PremiumStreak{UserID: userID, Flows: map[string]models.FlowStreak{}}
	err := s.streaks().FindOne(ctx, bson.M{"user_id": userID}).Decode(doc)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("load streaks: %w", err)
	}
	for flow := range models.FlowSteps {
		if _, ok := doc.Flows[flow]; !ok {
			doc.Flows[flow] = models.FlowStreak{}
		}
	}
	return doc, nil
}

// History lists a flow's sessions newest first, all flows when flow is empty.
func (s *ReflectionService) History(ctx context.Context, userID, flow string, page, limit int) ([]models.ReflectionSession, int64, error) {
	filter := bson.M{"user_id": userID}
	if flow != "" {
		if !models.KnownFlow(flow) {
			return nil, 0, fmt.Errorf("%w: unknown flow %q", ErrValidation, flow)
		}
		filter["flow"] = flow
	}

	total, err := s.sessions().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count reflections: %w", err)
	}

	opts := optionsFindPage(page, limit, bson.D{{Key: "started_at", Value: -1}})
	cursor, err := s.sessions().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list reflections: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []models.ReflectionSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, 0, fmt.Errorf("decode reflections: %w", err)
	}
	return sessions, total, nil
}
