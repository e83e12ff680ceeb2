// Package postgres is the ProfileStore backend for multi-instance
// deployments, where conversational context must be shared across processes.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

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
	created_at            TIMESTAMPTZ NOT NULL,
	updated_at            TIMESTAMPTZ NOT NULL
)`

const profileColumns = `user_id, level_scheme, level_value, usage_scene, tone_default, style_variant,
	last_source_text, last_generated_output, last_reverse_source, last_reverse_output, last_mode,
	created_at, updated_at`

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database at dsn and ensures the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) GetOrCreate(ctx context.Context, userID string) (*core.Profile, error) {
	def := core.NewProfile(userID)
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, '', '', '', '', '', $7, $8)
		ON CONFLICT (user_id) DO NOTHING`,
		userID, string(def.LevelScheme), def.LevelValue, string(def.UsageScene),
		string(def.ToneDefault), string(def.StyleVariant), def.CreatedAt, def.UpdatedAt,
	)
	if err != nil {
		return nil, unavailable("insert profile", err)
	}
	return s.get(ctx, userID)
}

func (s *Store) Update(ctx context.Context, userID string, patch core.ProfilePatch) (*core.Profile, error) {
	sets, args := patchClauses(patch)
	if len(sets) == 0 {
		return s.get(ctx, userID)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, userID)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("UPDATE profiles SET %s WHERE user_id = $%d", strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		return nil, unavailable("update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, core.ErrProfileNotFound
	}
	return s.get(ctx, userID)
}

func patchClauses(patch core.ProfilePatch) (sets []string, args []any) {
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
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
	err := s.pool.QueryRow(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id = $1", userID,
	).Scan(
		&p.UserID, &p.LevelScheme, &p.LevelValue, &p.UsageScene, &p.ToneDefault, &p.StyleVariant,
		&p.LastSourceText, &p.LastGeneratedOutput, &p.LastReverseSource, &p.LastReverseOutput, &p.LastMode,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrProfileNotFound
	}
	if err != nil {
		return nil, unavailable("select profile", err)
	}
	return &p, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("postgres: %s: %w: %v", op, core.ErrStoreUnavailable, err)
}
