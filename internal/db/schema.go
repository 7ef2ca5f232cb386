package db

import (
	"context"
	"fmt"
	"strings"

	"backend-milestomemories/internal/config"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id {{pk}},
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	name TEXT NOT NULL,
	avatar_url TEXT,
	created_at {{ts}} DEFAULT CURRENT_TIMESTAMP,
	updated_at {{ts}} DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_profiles (
	id {{pk}},
	user_id INTEGER UNIQUE REFERENCES users(id),
	bio TEXT,
	location TEXT,
	website TEXT,
	created_at {{ts}} DEFAULT CURRENT_TIMESTAMP,
	updated_at {{ts}} DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS social_connections (
	id {{pk}},
	user_id INTEGER REFERENCES users(id),
	platform TEXT NOT NULL,
	username TEXT NOT NULL,
	connected_at {{ts}} DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, platform)
);

CREATE TABLE IF NOT EXISTS trips (
	id {{pk}},
	user_id INTEGER REFERENCES users(id),
	title TEXT NOT NULL,
	location TEXT NOT NULL,
	latitude {{real}},
	longitude {{real}},
	date TEXT,
	description TEXT,
	mood TEXT,
	image_url TEXT,
	likes_count INTEGER DEFAULT 0,
	created_at {{ts}} DEFAULT CURRENT_TIMESTAMP,
	updated_at {{ts}} DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trip_photos (
	id {{pk}},
	trip_id INTEGER REFERENCES trips(id),
	photo_url TEXT NOT NULL,
	caption TEXT,
	sort_order INTEGER DEFAULT 0,
	created_at {{ts}} DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS trip_likes (
	id {{pk}},
	trip_id INTEGER REFERENCES trips(id),
	user_id INTEGER REFERENCES users(id),
	created_at {{ts}} DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(trip_id, user_id)
);

CREATE TABLE IF NOT EXISTS trip_saves (
	id {{pk}},
	trip_id INTEGER REFERENCES trips(id),
	user_id INTEGER REFERENCES users(id),
	created_at {{ts}} DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(trip_id, user_id)
);

CREATE TABLE IF NOT EXISTS comments (
	id {{pk}},
	trip_id INTEGER REFERENCES trips(id),
	user_id INTEGER REFERENCES users(id),
	content TEXT NOT NULL,
	created_at {{ts}} DEFAULT CURRENT_TIMESTAMP,
	updated_at {{ts}} DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_trips_user_id ON trips(user_id);
CREATE INDEX IF NOT EXISTS idx_trips_location ON trips(location);
CREATE INDEX IF NOT EXISTS idx_comments_trip_id ON comments(trip_id);
CREATE INDEX IF NOT EXISTS idx_trip_likes_trip_id ON trip_likes(trip_id);
`

var dialects = map[string]*strings.Replacer{
	config.DriverPostgres: strings.NewReplacer("{{pk}}", "SERIAL PRIMARY KEY", "{{ts}}", "TIMESTAMP", "{{real}}", "DOUBLE PRECISION"),
	config.DriverSQLite:   strings.NewReplacer("{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT", "{{ts}}", "DATETIME", "{{real}}", "REAL"),
}

// SchemaStatements returns the CREATE statements for driver, one per entry.
func SchemaStatements(driver string) ([]string, error) {
	replacer, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("db: unknown driver %q", driver)
	}
	var stmts []string
	for _, stmt := range strings.Split(replacer.Replace(schema), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

// Migrate creates missing tables and indexes.
func Migrate(ctx context.Context, q Querier, driver string) error {
	stmts, err := SchemaStatements(driver)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := q.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("db: migrate: %w", err)
		}
	}
	return nil
}
