package database

import (
	"fmt"
	"log"

	"postshare/internal/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
)

func Connect(cfg *config.Config) (*sqlx.DB, error) {

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=require",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Println("Connected to database successfully")
	return db, nil
}

// schema is applied on startup. The original data layer created its
// collections implicitly, so the repo ships its own DDL instead of a
// migration tool.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id              BIGSERIAL PRIMARY KEY,
	username        TEXT NOT NULL UNIQUE,
	email           TEXT NOT NULL UNIQUE,
	password_hashed TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS posts (
	id          BIGSERIAL PRIMARY KEY,
	title       TEXT NOT NULL,
	image_url   TEXT NOT NULL DEFAULT '',
	categories  TEXT[] NOT NULL DEFAULT '{}',
	description TEXT NOT NULL DEFAULT '',
	like_count  INT NOT NULL DEFAULT 0 CHECK (like_count >= 0),
	user_id     BIGINT NOT NULL REFERENCES users(id),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC, id DESC);

CREATE INDEX IF NOT EXISTS posts_search_idx ON posts USING GIN (
	to_tsvector('english',
		title || ' ' || description || ' ' || array_to_string(categories, ' '))
);

CREATE TABLE IF NOT EXISTS favorites (
	user_id    BIGINT NOT NULL REFERENCES users(id),
	post_id    BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (user_id, post_id)
);

CREATE TABLE IF NOT EXISTS post_messages (
	id         BIGSERIAL PRIMARY KEY,
	post_id    BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
	user_id    BIGINT NOT NULL REFERENCES users(id),
	body       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS post_messages_post_idx ON post_messages (post_id, created_at DESC, id DESC);
`

// Migrate applies the schema. Safe to call on every startup.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
