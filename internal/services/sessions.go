package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mindnotes/mindnotes-backend/internal/database"
	"github.com/mindnotes/mindnotes-backend/internal/models"
)

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrValidation        = errors.New("validation failed")
)

// SessionService runs the focus session lifecycle: active, paused, completed,
// canceled. Durations of completed sessions are computed server side from
// wall clock minus accumulated pause time.
type SessionService struct {
	mongo *mongo.Database
	pg    *sql.DB
	log   zerolog.Logger
}

func NewSessionService(mdb *mongo.Database, pg *sql.DB, log zerolog.Logger) *SessionService {
	return &SessionService{mongo: mdb, pg: pg, log: log}
}

func (s *SessionService) sessions() *mongo.Collection {
	return s.mongo.Collection(database.CollFocusSessions)
}

// StartInput are the client-supplied fields for a new focus session.
type StartInput struct {
	SessionType            string   `json:"session_type"`
	PlannedDurationSeconds int      `json:"planned_duration_seconds"`
	TaskDescription        string   `json:"task_description"`
	ProgramID              string   `json:"program_id"`
	EnrollmentID           string   `json:"enrollment_id"`
	DayNumber              int      `json:"day_number"`
	Tags                   []string `json:"tags"`
}

// Start opens a focus session. If the user already has a non-terminal
// session, that session is returned instead of an error; the partial unique
// index backstops the race between the existence check and the insert.
// Validation failures come back as a per-field map, like JournalService.Create.
func (s *SessionService) Start(ctx context.Context, userID string, in StartInput) (*models.FocusSession, bool, map[string]string, error) {
	if errs := validateStart(in); len(errs) > 0 {
		return nil, false, errs, nil
	}

	if existing, err := s.findNonTerminal(ctx, userID); err != nil {
		return nil, false, nil, err
	} else if existing != nil {
		return existing, false, nil, nil
	}

	now := time.Now().UTC()
	session := &models.FocusSession{
		CreatedAt:              now,
		UpdatedAt:              now,
		UserID:                 userID,
		SessionType:            in.SessionType,
		Status:                 models.SessionActive,
		PlannedDurationSeconds: in.PlannedDurationSeconds,
		TaskDescription:        in.TaskDescription,
		ProgramID:              in.ProgramID,
		EnrollmentID:           in.EnrollmentID,
		DayNumber:              in.DayNumber,
		StartedAt:              now,
		Tags:                   in.Tags,
	}

	res, err := s.sessions().InsertOne(ctx, session)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost the race; serve the winner's session.
			existing, findErr := s.findNonTerminal(ctx, userID)
			if findErr != nil {
				return nil, false, nil, findErr
			}
			if existing != nil {
				return existing, false, nil, nil
			}
		}
		return nil, false, nil, fmt.Errorf("start session: %w", err)
	}
	session.ID = res.InsertedID.(primitive.ObjectID)
	return session, true, nil, nil
}

func validateStart(in StartInput) map[string]string {
	errs := map[string]string{}
	switch in.SessionType {
	case models.SessionTypePomodoro, models.SessionTypeCustom, models.SessionTypeProgram:
	default:
		errs["session_type"] = "session_type must be one of: pomodoro, custom, program"
	}
	if in.PlannedDurationSeconds <= 0 {
		errs["planned_duration_seconds"] = "planned duration must be positive"
	}
	return errs
}

// transitionGuard rejects an operation that is not legal from the session's
// current status. Pause and tick require an active session, resume a paused
// one; everything else only needs the session to be non-terminal.
func transitionGuard(status, op string) error {
	switch op {
	case "pause", "tick":
		if status != models.SessionActive {
			return fmt.Errorf("%w: cannot %s a %s session", ErrInvalidTransition, op, status)
		}
	case "resume":
		if status != models.SessionPaused {
			return fmt.Errorf("%w: cannot resume a %s session", ErrInvalidTransition, status)
		}
	default:
		if models.IsTerminal(status) {
			return fmt.Errorf("%w: session already %s", ErrInvalidTransition, status)
		}
	}
	return nil
}

func (s *SessionService) findNonTerminal(ctx context.Context, userID string) (*models.FocusSession, error) {
	var session models.FocusSession
	err := s.sessions().FindOne(ctx, bson.M{
		"user_id": userID,
		"status":  bson.M{"$in": bson.A{models.SessionActive, models.SessionPaused}},
	}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return &session, nil
}

// Active returns the user's current non-terminal session, or ErrNotFound.
func (s *SessionService) Active(ctx context.Context, userID string) (*models.FocusSession, error) {
	session, err := s.findNonTerminal(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	return session, nil
}

// Get loads a session by id, enforcing ownership. A session that exists but
// belongs to another user yields ErrForbidden, not ErrNotFound.
func (s *SessionService) Get(ctx context.Context, userID, sessionID string) (*models.FocusSession, error) {
	oid, err := primitive.ObjectIDFromHex(sessionID)
	if err != nil {
		return nil, ErrNotFound
	}
	var session models.FocusSession
	if err := s.sessions().FindOne(ctx, bson.M{"_id": oid}).Decode(&session); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session.UserID != userID {
		return nil, ErrForbidden
	}
	return &session, nil
}

// Pause transitions active → paused and opens a pause interval.
func (s *SessionService) Pause(ctx context.Context, userID, sessionID string) (*models.FocusSession, error) {
	session, err := s.Get(ctx, userID, sessionID)
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
	if err := s.applyUpdate(ctx, session.ID, update); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, sessionID)
}

// Resume transitions paused → active, closing the open pause interval and
// folding its length into the running total.
func (s *SessionService) Resume(ctx context.Context, userID, sessionID string) (*models.FocusSession, error) {
	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := transitionGuard(session.Status, "resume"); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	i := session.OpenPause()
	if i < 0 {
		// Paused without an open interval should not happen; repair by
		// transitioning without pause accounting.
		update := bson.M{"$set": bson.M{"status": models.SessionActive, "updated_at": now}}
		if err := s.applyUpdate(ctx, session.ID, update); err != nil {
			return nil, err
		}
		return s.Get(ctx, userID, sessionID)
	}

	pauseLen := int(now.Sub(session.Pauses[i].StartedAt).Seconds())
	update := bson.M{
		"$set": bson.M{
			"status":     models.SessionActive,
			"updated_at": now,
			fmt.Sprintf("pauses.%d.ended_at", i):         now,
			fmt.Sprintf("pauses.%d.duration_seconds", i): pauseLen,
		},
		"$inc": bson.M{"total_pause_duration_seconds": pauseLen},
	}
	if err := s.applyUpdate(ctx, session.ID, update); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, sessionID)
}

// CompleteInput carries the optional wrap-up fields submitted on completion.
type CompleteInput struct {
	ProductivityRating int      `json:"productivity_rating"`
	Notes              string   `json:"notes"`
	Distractions       []string `json:"distractions"`
}

// Complete closes an active or paused session and records the server-computed
// actual duration. Focus minutes roll up into the user profile and, for
// program sessions, into the enrollment.
func (s *SessionService) Complete(ctx context.Context, userID, sessionID string, in CompleteInput) (*models.FocusSession, error) {
	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := transitionGuard(session.Status, "complete"); err != nil {
		return nil, err
	}
	if in.ProductivityRating != 0 && (in.ProductivityRating < 1 || in.ProductivityRating > 5) {
		return nil, fmt.Errorf("%w: productivity rating must be 1-5", ErrValidation)
	}

	now := time.Now().UTC()
	actual := session.ActualDuration(now)

	set := bson.M{
		"status":                  models.SessionCompleted,
		"ended_at":                now,
		"updated_at":              now,
		"actual_duration_seconds": int(actual.Seconds()),
	}
	if in.ProductivityRating != 0 {
		set["productivity_rating"] = in.ProductivityRating
	}
	if in.Notes != "" {
		set["notes"] = in.Notes
	}
	if len(in.Distractions) > 0 {
		set["distractions"] = in.Distractions
	}
	if i := session.OpenPause(); i >= 0 {
		pauseLen := int(now.Sub(session.Pauses[i].StartedAt).Seconds())
		set[fmt.Sprintf("pauses.%d.ended_at", i)] = now
		set[fmt.Sprintf("pauses.%d.duration_seconds", i)] = pauseLen
	}

	if err := s.applyUpdate(ctx, session.ID, bson.M{"$set": set}); err != nil {
		return nil, err
	}

	// The session document is already terminal at this point. A failed
	// rollup only leaves counters stale, which Recompute repairs, so it
	// must not turn a completed session into an error response.
	minutes := int(actual.Minutes())
	if err := s.rollUpCompletion(ctx, userID, session, minutes, now); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("focus rollup failed")
	}

	return s.Get(ctx, userID, sessionID)
}

// Cancel discards an active or paused session. Canceled sessions never count
// toward streaks or focus totals.
func (s *SessionService) Cancel(ctx context.Context, userID, sessionID string) (*models.FocusSession, error) {
	session, err := s.Get(ctx, userID, sessionID)
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
	if err := s.applyUpdate(ctx, session.ID, update); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, sessionID)
}

// Tick records a heartbeat on an active session so stale sessions can be
// distinguished from live ones.
func (s *SessionService) Tick(ctx context.Context, userID, sessionID string) (*models.FocusSession, error) {
	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := transitionGuard(session.Status, "tick"); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	if err := s.applyUpdate(ctx, session.ID, bson.M{"$set": bson.M{"last_tick_at": now, "updated_at": now}}); err != nil {
		return nil, err
	}
	session.LastTickAt = &now
	return session, nil
}

// AddDistraction logs a distraction against an open session.
func (s *SessionService) AddDistraction(ctx context.Context, userID, sessionID, note string) (*models.FocusSession, error) {
	session, err := s.Get(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := transitionGuard(session.Status, "distraction"); err != nil {
		return nil, err
	}
	if note == "" {
		note = "unspecified"
	}
	now := time.Now().UTC()
	update := bson.M{
		"$push": bson.M{"distractions": note},
		"$set":  bson.M{"updated_at": now},
	}
	if err := s.applyUpdate(ctx, session.ID, update); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, sessionID)
}

func (s *SessionService) applyUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := s.sessions().UpdateByID(ctx, id, update)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// rollUpCompletion advances the profile streak, adds focus minutes, and for
// program sessions bumps the enrollment totals.
func (s *SessionService) rollUpCompletion(ctx context.Context, userID string, session *models.FocusSession, minutes int, now time.Time) error {
	tx, err := s.pg.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rollup: %w", err)
	}
	defer tx.Rollback()

	var current, longest int
	var lastCompletion *time.Time
	err = tx.QueryRowContext(ctx, `
		SELECT current_streak, longest_streak, last_completion_date
		FROM user_profiles WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&current, &longest, &lastCompletion)
	if errors.Is(err, sql.ErrNoRows) {
		// Profile row is created at signup; tolerate its absence.
		return tx.Commit()
	}
	if err != nil {
		return fmt.Errorf("load profile for rollup: %w", err)
	}

	newCurrent := AdvanceStreak(current, lastCompletion, now)
	newLongest := LongestStreak(longest, newCurrent)

	_, err = tx.ExecContext(ctx, `
		UPDATE user_profiles
		SET current_streak = $2,
			longest_streak = $3,
			last_completion_date = $4,
			total_focus_minutes = total_focus_minutes + $5,
			updated_at = NOW()
		WHERE user_id = $1`,
		userID, newCurrent, newLongest, dateOnly(now), minutes)
	if err != nil {
		return fmt.Errorf("update profile rollup: %w", err)
	}

	if session.SessionType == models.SessionTypeProgram && session.EnrollmentID != "" {
		_, err = tx.ExecContext(ctx, `
			UPDATE program_enrollments
			SET total_focus_minutes = total_focus_minutes + $2
			WHERE id = $1 AND user_id = $3`,
			session.EnrollmentID, minutes, userID)
		if err != nil {
			return fmt.Errorf("update enrollment rollup: %w", err)
		}
	}

	return tx.Commit()
}

// FocusMinutesSince sums completed focus time ending at or after the cutoff.
func (s *SessionService) FocusMinutesSince(ctx context.Context, userID string, since time.Time) (int, error) {
	cursor, err := s.sessions().Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"user_id":  userID,
			"status":   models.SessionCompleted,
			"ended_at": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"seconds": bson.M{"$sum": "$actual_duration_seconds"},
		}}},
	})
	if err != nil {
		return 0, fmt.Errorf("aggregate focus time: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Seconds int `bson:"seconds"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, fmt.Errorf("decode focus time: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Seconds / 60, nil
}

// History lists the user's past sessions, newest first.
func (s *SessionService) History(ctx context.Context, userID string, page, limit int) ([]models.FocusSession, int64, error) {
	filter := bson.M{"user_id": userID}

	total, err := s.sessions().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	opts := optionsFindPage(page, limit, bson.D{{Key: "started_at", Value: -1}})
	cursor, err := s.sessions().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	defer cursor.Close(ctx)

	sessions := []models.FocusSession{}
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, 0, fmt.Errorf("decode sessions: %w", err)
	}
	return sessions, total, nil
}
