package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mindnotes/mindnotes-backend/internal/database"
	"github.com/mindnotes/mindnotes-backend/internal/models"
)

// ProgramService serves the structured focus program catalog, enrollments in
// the relational ledger, and per-day progress documents.
type ProgramService struct {
	pg    *sql.DB
	mongo *mongo.Database
}

func NewProgramService(pg *sql.DB, mdb *mongo.Database) *ProgramService {
	return &ProgramService{pg: pg, mongo: mdb}
}

func (s *ProgramService) progress() *mongo.Collection {
	return s.mongo.Collection(database.CollProgramDayProgress)
}

// ProgramListing is a catalog program with the caller's enrollment state and
// the pro gate resolved.
type ProgramListing struct {
	models.FocusProgram
	IsLocked         bool    `json:"is_locked"`
	EnrollmentStatus string  `json:"enrollment_status,omitempty"`
	CurrentDay       int     `json:"current_day,omitempty"`
	ProgressPercent  float64 `json:"progress_percent"`
}

// List returns the catalog ordered for display, with pro-only programs
// locked for unentitled users and enrollment state merged in.
func (s *ProgramService) List(ctx context.Context, userID uuid.UUID, entitled bool) ([]ProgramListing, error) {
	rows, err := s.pg.QueryContext(ctx, `
		SELECT p.id, p.name, p.program_type, p.description, p.duration_days,
			p.is_pro_only, p.icon, p.color, p.sort_order,
			e.status, e.current_day, e.days_completed
		FROM focus_programs p
		LEFT JOIN program_enrollments e
			ON e.program_id = p.id AND e.user_id = $1 AND e.status IN ('in_progress', 'paused')
		ORDER BY p.sort_order, p.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	listings := []ProgramListing{}
	for rows.Next() {
		var l ProgramListing
		var status sql.NullString
		var currentDay, daysCompleted sql.NullInt64
		if err := rows.Scan(&l.ID, &l.Name, &l.ProgramType, &l.Description, &l.DurationDays,
			&l.IsProOnly, &l.Icon, &l.Color, &l.SortOrder,
			&status, &currentDay, &daysCompleted); err != nil {
			return nil, fmt.Errorf("scan program: %w", err)
		}
		l.IsLocked = l.IsProOnly && !entitled
		if status.Valid {
			l.EnrollmentStatus = status.String
			l.CurrentDay = int(currentDay.Int64)
			if l.DurationDays > 0 {
				l.ProgressPercent = float64(daysCompleted.Int64) / float64(l.DurationDays) * 100
			}
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

// Get loads one catalog program.
func (s *ProgramService) Get(ctx context.Context, programID uuid.UUID) (*models.FocusProgram, error) {
	var p models.FocusProgram
	err := s.pg.QueryRowContext(ctx, `
		SELECT id, name, program_type, description, duration_days, is_pro_only, icon, color, sort_order
		FROM focus_programs WHERE id = $1`, programID).
		Scan(&p.ID, &p.Name, &p.ProgramType, &p.Description, &p.DurationDays,
			&p.IsProOnly, &p.Icon, &p.Color, &p.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}
	return &p, nil
}

// Day loads one day's catalog content.
func (s *ProgramService) Day(ctx context.Context, programID uuid.UUID, dayNumber int) (*models.ProgramDay, error) {
	var d models.ProgramDay
	var tasks, tips, prompts []byte
	err := s.pg.QueryRowContext(ctx, `
		SELECT id, program_id, day_number, title, description, focus_duration,
			tasks, tips, reflection_prompts
		FROM program_days WHERE program_id = $1 AND day_number = $2`, programID, dayNumber).
		Scan(&d.ID, &d.ProgramID, &d.DayNumber, &d.Title, &d.Description, &d.FocusDuration,
			&tasks, &tips, &prompts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load program day: %w", err)
	}
	if err := json.Unmarshal(tasks, &d.Tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	if err := json.Unmarshal(tips, &d.Tips); err != nil {
		return nil, fmt.Errorf("decode tips: %w", err)
	}
	if err := json.Unmarshal(prompts, &d.ReflectionPrompts); err != nil {
		return nil, fmt.Errorf("decode reflection prompts: %w", err)
	}
	return &d, nil
}

// Enroll starts a program for the user. Pro-only programs require
// entitlement; a second concurrent enrollment loses to the partial unique
// index and gets ErrDuplicate.
func (s *ProgramService) Enroll(ctx context.Context, userID, programID uuid.UUID, entitled bool) (*models.Enrollment, error) {
	program, err := s.Get(ctx, programID)
	if err != nil {
		return nil, err
	}
	if program.IsProOnly && !entitled {
		return nil, ErrForbidden
	}

	now := time.Now().UTC()
	e := &models.Enrollment{
		UserID:     userID,
		ProgramID:  programID,
		Status:     models.EnrollmentInProgress,
		StartedAt:  &now,
		CurrentDay: 1,
	}
	err = s.pg.QueryRowContext(ctx, `
		INSERT INTO program_enrollments (user_id, program_id, status, started_at, current_day)
		VALUES ($1, $2, $3, $4, 1)
		RETURNING id, created_at`, userID, programID, models.EnrollmentInProgress, now).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: already enrolled in this program", ErrDuplicate)
		}
		return nil, fmt.Errorf("enroll: %w", err)
	}
	return e, nil
}

// Enrollment loads one enrollment with ownership enforcement.
func (s *ProgramService) Enrollment(ctx context.Context, userID, enrollmentID uuid.UUID) (*models.Enrollment, error) {
	var e models.Enrollment
	err := s.pg.QueryRowContext(ctx, `
		SELECT id, created_at, user_id, program_id, status, started_at, completed_at,
			current_day, days_completed, total_focus_minutes, current_streak, longest_streak
		FROM program_enrollments WHERE id = $1`, enrollmentID).
		Scan(&e.ID, &e.CreatedAt, &e.UserID, &e.ProgramID, &e.Status, &e.StartedAt, &e.CompletedAt,
			&e.CurrentDay, &e.DaysCompleted, &e.TotalFocusMinutes, &e.CurrentStreak, &e.LongestStreak)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load enrollment: %w", err)
	}
	if e.UserID != userID {
		return nil, ErrForbidden
	}
	return &e, nil
}

// ActiveEnrollment returns the user's current enrollment with its program,
// or nils when no program is underway.
func (s *ProgramService) ActiveEnrollment(ctx context.Context, userID uuid.UUID) (*models.Enrollment, *models.FocusProgram, error) {
	var e models.Enrollment
	err := s.pg.QueryRowContext(ctx, `
		SELECT id, created_at, user_id, program_id, status, started_at, completed_at,
			current_day, days_completed, total_focus_minutes, current_streak, longest_streak
		FROM program_enrollments
		WHERE user_id = $1 AND status IN ('in_progress', 'paused')
		ORDER BY created_at DESC LIMIT 1`, userID).
		Scan(&e.ID, &e.CreatedAt, &e.UserID, &e.ProgramID, &e.Status, &e.StartedAt, &e.CompletedAt,
			&e.CurrentDay, &e.DaysCompleted, &e.TotalFocusMinutes, &e.CurrentStreak, &e.LongestStreak)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load active enrollment: %w", err)
	}
	program, err := s.Get(ctx, e.ProgramID)
	if err != nil {
		return nil, nil, err
	}
	return &e, program, nil
}

// Enrollments lists the user's enrollments newest first.
func (s *ProgramService) Enrollments(ctx context.Context, userID uuid.UUID) ([]models.Enrollment, error) {
	rows, err := s.pg.QueryContext(ctx, `
		SELECT id, created_at, user_id, program_id, status, started_at, completed_at,
			current_day, days_completed, total_focus_minutes, current_streak, longest_streak
		FROM program_enrollments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []models.Enrollment{}
	for rows.Next() {
		var e models.Enrollment
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.UserID, &e.ProgramID, &e.Status, &e.StartedAt,
			&e.CompletedAt, &e.CurrentDay, &e.DaysCompleted, &e.TotalFocusMinutes,
			&e.CurrentStreak, &e.LongestStreak); err != nil {
			return nil, fmt.Errorf("scan enrollment: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// DayProgress returns the per-day progress document for the current day,
// seeding it from the catalog on first access.
func (s *ProgramService) DayProgress(ctx context.Context, userID uuid.UUID, enrollmentID uuid.UUID, dayNumber int) (*models.ProgramDayProgress, *models.ProgramDay, error) {
	e, err := s.Enrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	if dayNumber == 0 {
		dayNumber = e.CurrentDay
	}

	day, err := s.Day(ctx, e.ProgramID, dayNumber)
	if err != nil {
		return nil, nil, err
	}

	var doc models.ProgramDayProgress
	err = s.progress().FindOne(ctx, bson.M{
		"user_id":       userID.String(),
		"enrollment_id": enrollmentID.String(),
		"day_number":    dayNumber,
	}).Decode(&doc)
	if err == nil {
		return &doc, day, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil, fmt.Errorf("load day progress: %w", err)
	}

	now := time.Now().UTC()
	tasks := make([]models.DayTask, len(day.Tasks))
	for i, t := range day.Tasks {
		tasks[i] = models.DayTask{TaskText: t, Order: i}
	}
	doc = models.ProgramDayProgress{
		CreatedAt:          now,
		UpdatedAt:          now,
		UserID:             userID.String(),
		EnrollmentID:       enrollmentID.String(),
		ProgramID:          e.ProgramID.String(),
		DayNumber:          dayNumber,
		Tasks:              tasks,
		TargetFocusMinutes: day.FocusDuration,
	}
	res, err := s.progress().InsertOne(ctx, &doc)
	if err != nil {
		return nil, nil, fmt.Errorf("seed day progress: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return &doc, day, nil
}

// SetTask checks or unchecks one task by order index.
func (s *ProgramService) SetTask(ctx context.Context, userID, enrollmentID uuid.UUID, dayNumber, taskOrder int, completed bool) (*models.ProgramDayProgress, error) {
	doc, _, err := s.DayProgress(ctx, userID, enrollmentID, dayNumber)
	if err != nil {
		return nil, err
	}
	if taskOrder < 0 || taskOrder >= len(doc.Tasks) {
		return nil, fmt.Errorf("%w: task index out of range", ErrValidation)
	}

	now := time.Now().UTC()
	task := &doc.Tasks[taskOrder]
	if task.IsCompleted == completed {
		return doc, nil
	}
	task.IsCompleted = completed
	if completed {
		task.CompletedAt = &now
	} else {
		task.CompletedAt = nil
	}

	count := 0
	for _, t := range doc.Tasks {
		if t.IsCompleted {
			count++
		}
	}
	doc.TasksCompletedCount = count
	doc.UpdatedAt = now

	if _, err := s.progress().ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc); err != nil {
		return nil, fmt.Errorf("save task: %w", err)
	}
	return doc, nil
}

// AddReflection records one reflection answer on the day.
func (s *ProgramService) AddReflection(ctx context.Context, userID, enrollmentID uuid.UUID, dayNumber int, question, answer string) (*models.ProgramDayProgress, map[string]string, error) {
	if question == "" || answer == "" {
		return nil, map[string]string{"answer": "question and answer are required"}, nil
	}
	doc, _, err := s.DayProgress(ctx, userID, enrollmentID, dayNumber)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	update := bson.M{
		"$push": bson.M{"reflections": models.DayReflection{
			Question:   question,
			Answer:     answer,
			AnsweredAt: now,
		}},
		"$set": bson.M{"updated_at": now},
	}
	if _, err := s.progress().UpdateByID(ctx, doc.ID, update); err != nil {
		return nil, nil, fmt.Errorf("save reflection: %w", err)
	}
	return s.reload(ctx, doc.ID)
}

// AddFocusMinutes folds completed focus time into the day's progress.
func (s *ProgramService) AddFocusMinutes(ctx context.Context, userID, enrollmentID uuid.UUID, dayNumber, minutes int) (*models.ProgramDayProgress, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: minutes must be positive", ErrValidation)
	}
	doc, _, err := s.DayProgress(ctx, userID, enrollmentID, dayNumber)
	if err != nil {
		return nil, err
	}
	update := bson.M{
		"$inc": bson.M{"total_focus_minutes": minutes},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}
	if _, err := s.progress().UpdateByID(ctx, doc.ID, update); err != nil {
		return nil, fmt.Errorf("add focus minutes: %w", err)
	}
	out, _, err := s.reload(ctx, doc.ID)
	return out, err
}

func (s *ProgramService) reload(ctx context.Context, id primitive.ObjectID) (*models.ProgramDayProgress, map[string]string, error) {
	var doc models.ProgramDayProgress
	if err := s.progress().FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("reload day progress: %w", err)
	}
	return &doc, nil, nil
}

// CompleteDay closes the current day when its completion criteria are met,
// advances the enrollment day pointer and streak, and finishes the program on
// the last day.
func (s *ProgramService) CompleteDay(ctx context.Context, userID, enrollmentID uuid.UUID, dayNumber int) (*models.Enrollment, *models.ProgramDayProgress, error) {
	e, err := s.Enrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	if e.Status != models.EnrollmentInProgress {
		return nil, nil, fmt.Errorf("%w: enrollment is %s", ErrInvalidTransition, e.Status)
	}
	if dayNumber == 0 {
		dayNumber = e.CurrentDay
	}
	if dayNumber != e.CurrentDay {
		return nil, nil, fmt.Errorf("%w: day %d is not the current day", ErrInvalidTransition, dayNumber)
	}

	doc, _, err := s.DayProgress(ctx, userID, enrollmentID, dayNumber)
	if err != nil {
		return nil, nil, err
	}
	if doc.IsCompleted {
		return e, doc, nil
	}
	if !doc.CheckCompletion() {
		return nil, nil, fmt.Errorf("%w: day requirements not met", ErrInvalidTransition)
	}

	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"is_completed": true,
		"completed_at": now,
		"updated_at":   now,
	}}
	if _, err := s.progress().UpdateByID(ctx, doc.ID, update); err != nil {
		return nil, nil, fmt.Errorf("complete day: %w", err)
	}

	program, err := s.Get(ctx, e.ProgramID)
	if err != nil {
		return nil, nil, err
	}

	// Day streak within the program mirrors the profile streak rules.
	newStreak := e.CurrentStreak + 1
	newLongest := LongestStreak(e.LongestStreak, newStreak)
	nextDay := e.CurrentDay + 1
	status := models.EnrollmentInProgress
	var completedAt *time.Time
	if e.DaysCompleted+1 >= program.DurationDays {
		status = models.EnrollmentCompleted
		completedAt = &now
		nextDay = e.CurrentDay
	}

	_, err = s.pg.ExecContext(ctx, `
		UPDATE program_enrollments
		SET status = $2, current_day = $3, days_completed = days_completed + 1,
			current_streak = $4, longest_streak = $5, completed_at = $6
		WHERE id = $1`,
		enrollmentID, status, nextDay, newStreak, newLongest, completedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("advance enrollment: %w", err)
	}

	updated, err := s.Enrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, nil, err
	}
	out, _, err := s.reload(ctx, doc.ID)
	if err != nil {
		return nil, nil, err
	}
	return updated, out, nil
}

// PauseEnrollment suspends an in-progress enrollment.
func (s *ProgramService) PauseEnrollment(ctx context.Context, userID, enrollmentID uuid.UUID) (*models.Enrollment, error) {
	return s.setEnrollmentStatus(ctx, userID, enrollmentID, models.EnrollmentInProgress, models.EnrollmentPaused)
}

// ResumeEnrollment reactivates a paused enrollment.
func (s *ProgramService) ResumeEnrollment(ctx context.Context, userID, enrollmentID uuid.UUID) (*models.Enrollment, error) {
	return s.setEnrollmentStatus(ctx, userID, enrollmentID, models.EnrollmentPaused, models.EnrollmentInProgress)
}

func (s *ProgramService) setEnrollmentStatus(ctx context.Context, userID, enrollmentID uuid.UUID, from, to string) (*models.Enrollment, error) {
	e, err := s.Enrollment(ctx, userID, enrollmentID)
	if err != nil {
		return nil, err
	}
	if e.Status != from {
		return nil, fmt.Errorf("%w: enrollment is %s", ErrInvalidTransition, e.Status)
	}
	_, err = s.pg.ExecContext(ctx,
		`UPDATE program_enrollments SET status = $2 WHERE id = $1`, enrollmentID, to)
	if err != nil {
		return nil, fmt.Errorf("update enrollment status: %w", err)
	}
	return s.Enrollment(ctx, userID, enrollmentID)
}
