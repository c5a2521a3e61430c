package session

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"
)

//go:embed schema.sql
var schemaSQL string

// Schema versions, tracked through PRAGMA user_version:
// 0 - empty database
// 1 - initial sessions table
const currentSchemaVersion = 1

// ErrNotFound is returned when no session matches the requested name.
var ErrNotFound = errors.New("session not found")

// Record is one stored session row.
type Record struct {
	ID            string
	Name          string
	Game          string
	RuleSetDigest string
	StateDigest   string
	State         State
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Store is the SQLite-backed session store.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at path (":memory:" for tests). The
// connection is configured for a single writer: WAL journaling, a busy
// timeout, foreign keys on, and one pooled connection.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect session store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	if version >= currentSchemaVersion {
		return nil
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// Save upserts a capture under a name. A new name gets a fresh ULID; an
// existing name keeps its ID and created_at and replaces the capture.
// Saving the identical state twice is harmless.
func (s *Store) Save(ctx context.Context, name string, state State) (*Record, error) {
	if name == "" {
		return nil, fmt.Errorf("session name must not be empty")
	}
	if err := state.Validate(); err != nil {
		return nil, err
	}
	stateDigest, err := state.Digest()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode session state: %w", err)
	}

	now := time.Now().UTC()
	id := ulid.Make().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, name, game, ruleset_digest, state_digest, state_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			game = excluded.game,
			ruleset_digest = excluded.ruleset_digest,
			state_digest = excluded.state_digest,
			state_json = excluded.state_json,
			updated_at = excluded.updated_at`,
		id, name, state.Game, state.RuleSetDigest, stateDigest,
		payload, now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("save session %q: %w", name, err)
	}
	return s.Load(ctx, name)
}

// Load reads one session by name.
func (s *Store) Load(ctx context.Context, name string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, game, ruleset_digest, state_digest, state_json, created_at, updated_at
		FROM sessions WHERE name = ?`, name)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %q: %w", name, ErrNotFound)
	}
	return rec, err
}

// Delete removes one session by name. Deleting a missing session reports
// ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete session %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session %q: %w", name, ErrNotFound)
	}
	return nil
}

// List returns sessions matching the filter, newest first.
func (s *Store) List(ctx context.Context, f ListFilter) ([]*Record, error) {
	querySQL, args, err := f.compile()
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var rec Record
	var payload []byte
	var createdAt, updatedAt string
	if err := sc.Scan(&rec.ID, &rec.Name, &rec.Game, &rec.RuleSetDigest, &rec.StateDigest,
		&payload, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &rec.State); err != nil {
		return nil, fmt.Errorf("decode session state: %w", err)
	}
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &rec, nil
}
