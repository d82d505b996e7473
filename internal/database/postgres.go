package database

import (
	"database/sql"
	"log"
	"time"

	_ "github.com/lib/pq"
)

// ConnectPostgres opens a PostgreSQL pool, verifies connectivity and makes
// sure the schema exists.
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

	log.Println("✅ Connected to PostgreSQL")

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
			username VARCHAR(20) NOT NULL UNIQUE,
			display_name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Activities table. The date column is DATE on purpose: workouts
		// are calendar-day records and must never shift across timezones.
		`CREATE TABLE IF NOT EXISTS activities (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			date DATE NOT NULL,
			sport VARCHAR(255) NOT NULL,
			duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
			intensity VARCHAR(50) NOT NULL DEFAULT 'moderate',
			notes TEXT NOT NULL DEFAULT '',
			photo_url TEXT NOT NULL DEFAULT '',
			is_public BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Goals table: at most one row per user, upserted in place.
		`CREATE TABLE IF NOT EXISTS goals (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			weekly_goal INTEGER NOT NULL,
			monthly_goal INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(user_id)
		)`,

		// Friend requests table
		`CREATE TABLE IF NOT EXISTS friend_requests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			from_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			to_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(from_user_id, to_user_id)
		)`,

		// Friendships table (one row per pair, user_a < user_b)
		`CREATE TABLE IF NOT EXISTS friendships (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_a UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			user_b UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(user_a, user_b)
		)`,

		// Blacklist table
		`CREATE TABLE IF NOT EXISTS blacklist (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			blocked_user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE(user_id, blocked_user_id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users(LOWER(username))`,
		`CREATE INDEX IF NOT EXISTS idx_activities_owner_id ON activities(owner_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_owner_date ON activities(owner_id, date)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_public_created ON activities(is_public, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_goals_user_id ON goals(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_to_user ON friend_requests(to_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_friend_requests_from_user ON friend_requests(from_user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_friendships_user_a ON friendships(user_a)`,
		`CREATE INDEX IF NOT EXISTS idx_friendships_user_b ON friendships(user_b)`,
		`CREATE INDEX IF NOT EXISTS idx_blacklist_user_id ON blacklist(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_blacklist_blocked_user_id ON blacklist(blocked_user_id)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}

	log.Println("✅ PostgreSQL tables initialized")
	return nil
}
