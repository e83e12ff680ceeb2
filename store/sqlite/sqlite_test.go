package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eigolab/kaiwa/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetOrCreateDefaults(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	p, err := s.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, core.SchemeRough, p.LevelScheme)
	assert.Equal(t, "中級", p.LevelValue)
	assert.Equal(t, core.TonePolite, p.ToneDefault)
	assert.Empty(t, p.LastSourceText)
	assert.False(t, p.CreatedAt.IsZero())
}

// First contact is idempotent: a second GetOrCreate must not reset settings.
func TestGetOrCreateIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetOrCreate(ctx, "u1")
	require.NoError(t, err)

	scene := core.SceneExternal
	_, err = s.Update(ctx, "u1", core.ProfilePatch{UsageScene: &scene})
	require.NoError(t, err)

	p, err := s.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, core.SceneExternal, p.UsageScene)
}

func TestUpdateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetOrCreate(ctx, "u1")
	require.NoError(t, err)

	scheme := core.SchemeEiken
	value := "準1級"
	tone := core.ToneCasual
	mode := core.ModeToEnglish
	p, err := s.Update(ctx, "u1", core.ProfilePatch{
		LevelScheme: &scheme,
		LevelValue:  &value,
		ToneDefault: &tone,
		Forward:     &core.TurnArtifact{Source: "また明日", Output: "See you tomorrow."},
		LastMode:    &mode,
	})
	require.NoError(t, err)

	assert.Equal(t, core.SchemeEiken, p.LevelScheme)
	assert.Equal(t, "準1級", p.LevelValue)
	assert.Equal(t, core.ToneCasual, p.ToneDefault)
	assert.Equal(t, "また明日", p.LastSourceText)
	assert.Equal(t, "See you tomorrow.", p.LastGeneratedOutput)
	assert.Equal(t, core.ModeToEnglish, p.LastMode)

	// Read back through a fresh query.
	p, err = s.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "See you tomorrow.", p.LastGeneratedOutput)
}

func TestUpdateUnknownUser(t *testing.T) {
	s := openTestStore(t)

	tone := core.ToneCasual
	_, err := s.Update(context.Background(), "ghost", core.ProfilePatch{ToneDefault: &tone})
	assert.ErrorIs(t, err, core.ErrProfileNotFound)
}

func TestUpdateEmptyPatchReadsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.GetOrCreate(ctx, "u1")
	require.NoError(t, err)

	p, err := s.Update(ctx, "u1", core.ProfilePatch{})
	require.NoError(t, err)
	assert.Equal(t, "u1", p.UserID)
}

func TestOpenCreatesDataDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "kaiwa.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.GetOrCreate(context.Background(), "u1")
	require.NoError(t, err)
}

// Driver failures must map to ErrStoreUnavailable so the engine can degrade.
func TestDriverErrorsMapToUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	s := NewWithDB(db)
	defer s.Close()

	mock.ExpectExec("INSERT INTO profiles").WillReturnError(assert.AnError)

	_, err = s.GetOrCreate(context.Background(), "u1")
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)

	tone := core.ToneCasual
	mock.ExpectExec("UPDATE profiles").WillReturnError(assert.AnError)

	_, err = s.Update(context.Background(), "u1", core.ProfilePatch{ToneDefault: &tone})
	assert.ErrorIs(t, err, core.ErrStoreUnavailable)

	assert.NoError(t, mock.ExpectationsWereMet())
}
