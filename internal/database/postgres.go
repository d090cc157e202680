package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens the relational ledger and verifies the connection.
func ConnectPostgres(postgresURI string) (*sql.DB, error) {
	db, err := sql.Open("postgres", postgresURI)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err = InitPostgresTables(db); err != nil {
		return nil, err
	}

	return db, nil
}

// InitPostgresTables creates all necessary tables if they don't exist
func InitPostgresTables(db *sql.DB) error {
	queries := []string{
		// Users table
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			bio TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			timezone VARCHAR(50) NOT NULL DEFAULT 'UTC',
			language VARCHAR(10) NOT NULL DEFAULT 'en',
			onboarding_completed BOOLEAN NOT NULL DEFAULT FALSE,
			last_login_at TIMESTAMP,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Per-user counters and preferences (1:1 with users)
		`CREATE TABLE IF NOT EXISTS user_profiles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			default_entry_privacy VARCHAR(20) NOT NULL DEFAULT 'private',
			default_focus_duration INTEGER NOT NULL DEFAULT 25,
			mood_tracking_enabled BOOLEAN NOT NULL DEFAULT TRUE,
			total_entries INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			total_focus_minutes INTEGER NOT NULL DEFAULT 0,
			last_completion_date DATE,
			updated_at TIMESTAMP NOT NULL DEFAULT NOW(),
			UNIQUE(user_id)
		)`,

		// Subscriptions (1:1 with users, mutated by payment webhooks externally)
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			plan VARCHAR(20) NOT NULL DEFAULT 'free',
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			started_at TIMESTAMP NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMP,
			canceled_at TIMESTAMP,
			trial_started_at TIMESTAMP,
			trial_ends_at TIMESTAMP,
			auto_renew BOOLEAN NOT NULL DEFAULT TRUE,
			UNIQUE(user_id)
		)`,

		// Premium program trial: fixed window from first use, per-feature counters
		`CREATE TABLE IF NOT EXISTS premium_trials (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			trial_started_at TIMESTAMP NOT NULL DEFAULT NOW(),
			trial_ends_at TIMESTAMP NOT NULL,
			trial_expired BOOLEAN NOT NULL DEFAULT FALSE,
			converted_to_paid BOOLEAN NOT NULL DEFAULT FALSE,
			morning_charge_count INTEGER NOT NULL DEFAULT 0,
			brain_dump_count INTEGER NOT NULL DEFAULT 0,
			gratitude_pause_count INTEGER NOT NULL DEFAULT 0,
			UNIQUE(user_id)
		)`,

		// Tags for journal entries
		`CREATE TABLE IF NOT EXISTS tags (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name VARCHAR(50) NOT NULL,
			color VARCHAR(7) NOT NULL DEFAULT '#3B82F6',
			UNIQUE(user_id, name)
		)`,

		// Mood reference data (read-mostly catalog)
		`CREATE TABLE IF NOT EXISTS mood_categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(50) NOT NULL UNIQUE,
			emoji VARCHAR(10) NOT NULL,
			color VARCHAR(7) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			sort_order INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		`CREATE TABLE IF NOT EXISTS mood_factors (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(50) NOT NULL UNIQUE,
			factor_type VARCHAR(20) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Daily journaling prompts (reference data)
		`CREATE TABLE IF NOT EXISTS daily_prompts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			question TEXT NOT NULL,
			category VARCHAR(50) NOT NULL DEFAULT 'Reflection',
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Focus program catalog
		`CREATE TABLE IF NOT EXISTS focus_programs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) NOT NULL,
			program_type VARCHAR(20) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			duration_days INTEGER NOT NULL,
			is_pro_only BOOLEAN NOT NULL DEFAULT TRUE,
			icon VARCHAR(50) NOT NULL DEFAULT '',
			color VARCHAR(7) NOT NULL DEFAULT '#3B82F6',
			sort_order INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS program_days (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			program_id UUID NOT NULL REFERENCES focus_programs(id) ON DELETE CASCADE,
			day_number INTEGER NOT NULL,
			title VARCHAR(200) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			focus_duration INTEGER NOT NULL,
			tasks JSONB NOT NULL DEFAULT '[]',
			tips JSONB NOT NULL DEFAULT '[]',
			reflection_prompts JSONB NOT NULL DEFAULT '[]',
			UNIQUE(program_id, day_number)
		)`,

		// Per-user program enrollment and progress
		`CREATE TABLE IF NOT EXISTS program_enrollments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			created_at TIMESTAMP NOT NULL DEFAULT NOW(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			program_id UUID NOT NULL REFERENCES focus_programs(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'not_started',
			started_at TIMESTAMP,
			completed_at TIMESTAMP,
			current_day INTEGER NOT NULL DEFAULT 1,
			days_completed INTEGER NOT NULL DEFAULT 0,
			total_focus_minutes INTEGER NOT NULL DEFAULT 0,
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		`CREATE INDEX IF NOT EXISTS idx_user_profiles_user_id ON user_profiles(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_expires_at ON subscriptions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_premium_trials_user_id ON premium_trials(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tags_user_id ON tags(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_categories_active ON mood_categories(is_active, sort_order)`,
		`CREATE INDEX IF NOT EXISTS idx_daily_prompts_active ON daily_prompts(is_active)`,
		`CREATE INDEX IF NOT EXISTS idx_program_days_program_id ON program_days(program_id)`,
		`CREATE INDEX IF NOT EXISTS idx_program_enrollments_user_id ON program_enrollments(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_program_enrollments_status ON program_enrollments(user_id, status)`,
		// One in-progress enrollment per user per program
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_program_enrollments_active
			ON program_enrollments(user_id, program_id) WHERE status = 'in_progress'`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	return nil
}
