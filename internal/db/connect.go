package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// SQLName is the database/sql driver name registered for d.
func (d Driver) SQLName() string {
	if d == DriverPostgres {
		return "pgx"
	}
	return "sqlite"
}

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = "file:venturelens.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		if dsn == "" {
			dsn = "postgres://localhost:5432/venturelens?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(driver.SQLName(), dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// modernc serializes writers anyway; one conn keeps :memory: DBs coherent.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS startups (
  id TEXT PRIMARY KEY,
  founder_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  industry TEXT NOT NULL,
  stage TEXT NOT NULL,
  website_url TEXT NOT NULL DEFAULT '',
  linkedin_url TEXT NOT NULL DEFAULT '',
  funding_raised TEXT NOT NULL DEFAULT '',
  deck_url TEXT NOT NULL DEFAULT '',
  ai_score INTEGER NOT NULL DEFAULT 0,
  trust_signal TEXT NOT NULL DEFAULT 'weak',
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS startups_founder_idx ON startups (founder_id, created_at);
CREATE INDEX IF NOT EXISTS startups_score_idx ON startups (ai_score);

CREATE TABLE IF NOT EXISTS startup_scores (
  startup_id TEXT NOT NULL REFERENCES startups(id) ON DELETE CASCADE,
  category TEXT NOT NULL,
  score REAL NOT NULL DEFAULT 0,
  reasoning TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (startup_id, category)
);

CREATE TABLE IF NOT EXISTS startup_anomalies (
  id TEXT PRIMARY KEY,
  startup_id TEXT NOT NULL REFERENCES startups(id) ON DELETE CASCADE,
  external_id TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  severity TEXT NOT NULL DEFAULT '',
  priority TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  claim_deck TEXT NOT NULL DEFAULT '',
  claim_website TEXT NOT NULL DEFAULT '',
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS startup_anomalies_created_idx ON startup_anomalies (created_at);

CREATE TABLE IF NOT EXISTS event_log (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,                         -- e.g., StartupSubmitted
  key TEXT NOT NULL,                         -- natural key: startup or founder id
  data TEXT NOT NULL,                        -- JSON payload
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL,
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS startups (
  id TEXT PRIMARY KEY,
  founder_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  industry TEXT NOT NULL,
  stage TEXT NOT NULL,
  website_url TEXT NOT NULL DEFAULT '',
  linkedin_url TEXT NOT NULL DEFAULT '',
  funding_raised TEXT NOT NULL DEFAULT '',
  deck_url TEXT NOT NULL DEFAULT '',
  ai_score INTEGER NOT NULL DEFAULT 0,
  trust_signal TEXT NOT NULL DEFAULT 'weak',
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS startups_founder_idx ON startups (founder_id, created_at);
CREATE INDEX IF NOT EXISTS startups_score_idx ON startups (ai_score);

CREATE TABLE IF NOT EXISTS startup_scores (
  startup_id TEXT NOT NULL REFERENCES startups(id) ON DELETE CASCADE,
  category TEXT NOT NULL,
  score DOUBLE PRECISION NOT NULL DEFAULT 0,
  reasoning TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (startup_id, category)
);

CREATE TABLE IF NOT EXISTS startup_anomalies (
  id TEXT PRIMARY KEY,
  startup_id TEXT NOT NULL REFERENCES startups(id) ON DELETE CASCADE,
  external_id TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  severity TEXT NOT NULL DEFAULT '',
  priority TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  claim_deck TEXT NOT NULL DEFAULT '',
  claim_website TEXT NOT NULL DEFAULT '',
  created_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS startup_anomalies_created_idx ON startup_anomalies (created_at);

CREATE TABLE IF NOT EXISTS event_log (
  seq BIGSERIAL PRIMARY KEY,
  site_id TEXT NOT NULL DEFAULT 'local',
  typ TEXT NOT NULL,
  key TEXT NOT NULL,
  data TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`
