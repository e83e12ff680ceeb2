// Package sqlite is the default ProfileStore backend: a single-file database
// that needs no external service.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eigolab/kaiwa/core"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	user_id               TEXT PRIMARY KEY,
	level_scheme          TEXT NOT NULL,
	level_value           TEXT NOT NULL,
	usage_scene           TEXT NOT NULL,
	tone_default          TEXT NOT NULL,
	style_variant         TEXT NOT NULL,
	last_source_text      TEXT NOT NULL DEFAULT '',
	last_generated_output TEXT NOT NULL DEFAULT '',
	last_reverse_source   TEXT NOT NULL DEFAULT '',
	last_reverse_output   TEXT NOT NULL DEFAULT '',
	last_mode             TEXT NOT NULL DEFAULT '',
	created_at            TEXT NOT NULL,
	updated_at            TEXT NOT NULL
)`

const profileColumns = `user_id, level_scheme, level_value, usage_scene, tone_default, style_variant,
	last_source_text, last_generated_output, last_reverse_source, last_reverse_output, last_mode,
	created_at, updated_at`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
// Pass ":memory:" for an in-memory database (used by tests).
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	// Single connection avoids "database is locked" under concurrent turns.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: busy timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: journal mode: %w", err)
	}

	s := NewWithDB(db)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}
	return s, nil
}

// NewWithDB wraps an existing database handle. Tests use this with sqlmock.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetOrCreate inserts a default profile for unseen ids; the primary key makes
// concurrent first contact idempotent.
func (s *Store) GetOrCreate(ctx context.Context, userID string) (*core.Profile, error) {
	def := core.NewProfile(userID)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, '', '', '', '', '', ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, def.LevelScheme, def.LevelValue, def.UsageScene, def.ToneDefault, def.StyleVariant,
		def.CreatedAt.Format(time.RFC3339), def.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, unavailable("insert profile", err)
	}
	return s.get(ctx, userID)
}

// Update applies a partial patch as a single write.
func (s *Store) Update(ctx context.Context, userID string, patch core.ProfilePatch) (*core.Profile, error) {
	sets, args := patchClauses(patch)
	if len(sets) == 0 {
		return s.get(ctx, userID)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339), userID)

	res, err := s.db.ExecContext(ctx,
		"UPDATE profiles SET "+strings.Join(sets, ", ")+" WHERE user_id = ?", args...)
	if err != nil {
		return nil, unavailable("update profile", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, unavailable("update profile", err)
	}
	if n == 0 {
		return nil, core.ErrProfileNotFound
	}
	return s.get(ctx, userID)
}

// patchClauses translates a patch into SET clauses. The paired last-turn
// fields arrive only as whole TurnArtifact units, so both columns always
// change together.
func patchClauses(patch core.ProfilePatch) (sets []string, args []any) {
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if patch.LevelScheme != nil {
		add("level_scheme", string(*patch.LevelScheme))
	}
	if patch.LevelValue != nil {
		add("level_value", *patch.LevelValue)
	}
	if patch.UsageScene != nil {
		add("usage_scene", string(*patch.UsageScene))
	}
	if patch.ToneDefault != nil {
		add("tone_default", string(*patch.ToneDefault))
	}
	if patch.StyleVariant != nil {
		add("style_variant", string(*patch.StyleVariant))
	}
	if patch.Forward != nil {
		add("last_source_text", patch.Forward.Source)
		add("last_generated_output", patch.Forward.Output)
	}
	if patch.Reverse != nil {
		add("last_reverse_source", patch.Reverse.Source)
		add("last_reverse_output", patch.Reverse.Output)
	}
	if patch.LastMode != nil {
		add("last_mode", string(*patch.LastMode))
	}
	return sets, args
}

func (s *Store) get(ctx context.Context, userID string) (*core.Profile, error) {
	var p core.Profile
	var createdAt, updatedAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id = ?", userID,
	).Scan(
		&p.UserID, &p.LevelScheme, &p.LevelValue, &p.UsageScene, &p.ToneDefault, &p.StyleVariant,
		&p.LastSourceText, &p.LastGeneratedOutput, &p.LastReverseSource, &p.LastReverseOutput, &p.LastMode,
		&createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, unavailable("select profile", err)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("sqlite: parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("sqlite: parse updated_at: %w", err)
	}
	return &p, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("sqlite: %s: %w: %v", op, core.ErrStoreUnavailable, err)
}
