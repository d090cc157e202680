package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mindnotes/mindnotes-backend/internal/models"
	"github.com/mindnotes/mindnotes-backend/pkg/utils"
)

// ErrInvalidCredentials covers both unknown email and wrong password so the
// login response never reveals which one failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserService owns accounts and profiles in the relational ledger.
type UserService struct {
	pg *sql.DB
}

func NewUserService(pg *sql.DB) *UserService {
	return &UserService{pg: pg}
}

// SignupInput are the fields accepted at registration.
type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Timezone string `json:"timezone"`
}

// ValidateSignup returns field errors for a signup request.
func ValidateSignup(in SignupInput) map[string]string {
	errs := map[string]string{}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		errs["email"] = "a valid email address is required"
	}
	if len(in.Password) < 8 {
		errs["password"] = "password must be at least 8 characters"
	}
	if strings.TrimSpace(in.FullName) == "" {
		errs["full_name"] = "full name is required"
	}
	return errs
}

// Create registers an account and its profile row in one transaction.
func (s *UserService) Create(ctx context.Context, in SignupInput) (*models.User, error) {
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if in.Timezone == "" {
		in.Timezone = "UTC"
	}

	tx, err := s.pg.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin signup: %w", err)
	}
	defer tx.Rollback()

	user := &models.User{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		FullName: strings.TrimSpace(in.FullName),
		Timezone: in.Timezone,
		Language: "en",
		IsActive: true,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, full_name, timezone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		user.Email, hash, user.FullName, user.Timezone).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: email already registered", ErrDuplicate)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_profiles (user_id) VALUES ($1)`, user.ID); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit signup: %w", err)
	}
	return user, nil
}

// Authenticate verifies the credentials and stamps last login.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.byEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	ok, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if _, err := s.pg.ExecContext(ctx,
		`UPDATE users SET last_login_at = $2 WHERE id = $1`, user.ID, now); err != nil {
		return nil, fmt.Errorf("stamp login: %w", err)
	}
	user.LastLoginAt = &now
	return user, nil
}

func (s *UserService) byEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := s.pg.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, email, password_hash, full_name, bio, avatar_url,
			timezone, language, onboarding_completed, last_login_at, is_active
		FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Email, &user.PasswordHash,
			&user.FullName, &user.Bio, &user.AvatarURL, &user.Timezone, &user.Language,
			&user.OnboardingCompleted, &user.LastLoginAt, &user.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user by email: %w", err)
	}
	return user, nil
}

// Get loads an account by id.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := s.pg.QueryRowContext(ctx, `
		SELECT id, created_at, updated_at, email, password_hash, full_name, bio, avatar_url,
			timezone, language, onboarding_completed, last_login_at, is_active
		FROM users WHERE id = $1`, userID).
		Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt, &user.Email, &user.PasswordHash,
			&user.FullName, &user.Bio, &user.AvatarURL, &user.Timezone, &user.Language,
			&user.OnboardingCompleted, &user.LastLoginAt, &user.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpdateInput is the partial account update payload.
type UpdateInput struct {
	FullName            *string `json:"full_name"`
	Bio                 *string `json:"bio"`
	AvatarURL           *string `json:"avatar_url"`
	Timezone            *string `json:"timezone"`
	Language            *string `json:"language"`
	OnboardingCompleted *bool   `json:"onboarding_completed"`
}

// Update applies a partial account update.
func (s *UserService) Update(ctx context.Context, userID uuid.UUID, in UpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.FullName != nil {
		user.FullName = strings.TrimSpace(*in.FullName)
	}
	if in.Bio != nil {
		user.Bio = *in.Bio
	}
	if in.AvatarURL != nil {
		user.AvatarURL = *in.AvatarURL
	}
	if in.Timezone != nil {
		user.Timezone = *in.Timezone
	}
	if in.Language != nil {
		user.Language = *in.Language
	}
	if in.OnboardingCompleted != nil {
		user.OnboardingCompleted = *in.OnboardingCompleted
	}

	_, err = s.pg.ExecContext(ctx, `
		UPDATE users
		SET full_name = $2, bio = $3, avatar_url = $4, timezone = $5, language = $6,
			onboarding_completed = $7, updated_at = NOW()
		WHERE id = $1`,
		userID, user.FullName, user.Bio, user.AvatarURL, user.Timezone, user.Language,
		user.OnboardingCompleted)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password before setting the new one.
func (s *UserService) ChangePassword(ctx context.Context, userID uuid.UUID, current, next string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	ok, err := utils.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return ErrInvalidCredentials
	}
	if len(next) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	hash, err := utils.HashPassword(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.pg.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, userID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// Profile loads the per-user counters row.
func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	err := s.pg.QueryRowContext(ctx, `
		SELECT id, user_id, default_entry_privacy, default_focus_duration, mood_tracking_enabled,
			total_entries, current_streak, longest_streak, total_focus_minutes, last_completion_date
		FROM user_profiles WHERE user_id = $1`, userID).
		Scan(&p.ID, &p.UserID, &p.DefaultEntryPrivacy, &p.DefaultFocusDuration, &p.MoodTrackingEnabled,
			&p.TotalEntries, &p.CurrentStreak, &p.LongestStreak, &p.TotalFocusMinutes, &p.LastCompletionDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return p, nil
}

// ProfileInput is the partial preferences update payload.
type ProfileInput struct {
	DefaultEntryPrivacy  *string `json:"default_entry_privacy"`
	DefaultFocusDuration *int    `json:"default_focus_duration"`
	MoodTrackingEnabled  *bool   `json:"mood_tracking_enabled"`
}

// UpdateProfile applies a partial preferences update.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.UserProfile, error) {
	p, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.DefaultEntryPrivacy != nil {
		if *in.DefaultEntryPrivacy != models.PrivacyPrivate && *in.DefaultEntryPrivacy != models.PrivacyPublic {
			return nil, fmt.Errorf("%w: privacy must be private or public", ErrValidation)
		}
		p.DefaultEntryPrivacy = *in.DefaultEntryPrivacy
	}
	if in.DefaultFocusDuration != nil {
		if *in.DefaultFocusDuration < 5 || *in.DefaultFocusDuration > 180 {
			return nil, fmt.Errorf("%w: focus duration must be 5-180 minutes", ErrValidation)
		}
		p.DefaultFocusDuration = *in.DefaultFocusDuration
	}
	if in.MoodTrackingEnabled != nil {
		p.MoodTrackingEnabled = *in.MoodTrackingEnabled
	}

	_, err = s.pg.ExecContext(ctx, `
		UPDATE user_profiles
		SET default_entry_privacy = $2, default_focus_duration = $3, mood_tracking_enabled = $4,
			updated_at = NOW()
		WHERE user_id = $1`,
		userID, p.DefaultEntryPrivacy, p.DefaultFocusDuration, p.MoodTrackingEnabled)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}
