package history

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apiguard/internal/engine/model"
	"apiguard/internal/engine/report"
)

func record(kind model.Kind, element string, line int) report.ViolationRecord {
	ref := model.ElementRef{Kind: model.ElementType, Type: element}
	return report.ViolationRecord{
		Kind:     kind,
		Element:  ref,
		Origin:   ref,
		Location: model.Location{Type: "consumer.C", Member: "run()", Line: line},
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEntriesFrom_FingerprintIgnoresLine(t *testing.T) {
	a := EntriesFrom([]report.ViolationRecord{record(model.Instantiate, "api.T", 10)})
	b := EntriesFrom([]report.ViolationRecord{record(model.Instantiate, "api.T", 42)})
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0].Fingerprint, b[0].Fingerprint)
	assert.Equal(t, 10, a[0].Line)
	assert.Equal(t, "instantiate", a[0].Kind)
	assert.Contains(t, a[0].Message, "illegally instantiates api.T")
}

func TestCompare(t *testing.T) {
	base := EntriesFrom([]report.ViolationRecord{
		record(model.Instantiate, "api.T", 10),
		record(model.Reference, "api.U", 11),
		record(model.Reference, "api.U", 12),
	})
	cur := EntriesFrom([]report.ViolationRecord{
		record(model.Instantiate, "api.T", 14),
		record(model.Reference, "api.U", 15),
		record(model.Instantiate, "api.V", 16),
	})

	d := Compare(base, cur)
	assert.Equal(t, 2, d.Unchanged)
	require.Len(t, d.New, 1)
	assert.Equal(t, "api.V", d.New[0].Element)
	require.Len(t, d.Fixed, 1)
	assert.Equal(t, "api.U", d.Fixed[0].Element)
}

func TestStore_SaveRunAndBaseline(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	base := time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC)

	first := EntriesFrom([]report.ViolationRecord{
		record(model.Instantiate, "api.T", 10),
		record(model.Reference, "api.U", 11),
	})
	saved, err := store.SaveRun(ctx, Run{Project: "demo", StartedAt: base, TypeCount: 3}, first)
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, 2, saved.ViolationCount)

	second := EntriesFrom([]report.ViolationRecord{
		record(model.Instantiate, "api.T", 10),
		record(model.Extend, "api.W", 0),
	})
	next, err := store.SaveRun(ctx, Run{Project: "demo", StartedAt: base.Add(time.Hour)}, second)
	require.NoError(t, err)
	assert.NotEqual(t, saved.ID, next.ID)

	d, err := store.Baseline(ctx, "demo", next.ID, second)
	require.NoError(t, err)
	require.NotNil(t, d.Baseline)
	assert.Equal(t, saved.ID, d.Baseline.ID)
	assert.Equal(t, base, d.Baseline.StartedAt)
	assert.Equal(t, 3, d.Baseline.TypeCount)
	assert.Equal(t, 1, d.Unchanged)
	require.Len(t, d.New, 1)
	assert.Equal(t, "api.W", d.New[0].Element)
	require.Len(t, d.Fixed, 1)
	assert.Equal(t, "api.U", d.Fixed[0].Element)

	loaded, err := store.Entries(ctx, saved.ID)
	require.NoError(t, err)
	assert.Len(t, loaded, 2)
}

func TestStore_BaselineWithoutHistory(t *testing.T) {
	store := openStore(t)
	cur := EntriesFrom([]report.ViolationRecord{record(model.Instantiate, "api.T", 10)})

	d, err := store.Baseline(context.Background(), "demo", "", cur)
	require.NoError(t, err)
	assert.Nil(t, d.Baseline)
	assert.Len(t, d.New, 1)
	assert.Empty(t, d.Fixed)
}

func TestStore_ProjectIsolation(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	_, err := store.SaveRun(ctx, Run{Project: "project-a"}, nil)
	require.NoError(t, err)

	run, err := store.LatestRun(ctx, "project-b", "")
	require.NoError(t, err)
	assert.Nil(t, run)

	run, err = store.LatestRun(ctx, "project-a", "")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "project-a", run.Project)
}

func TestStore_OpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestStore_OpenCorruptDBPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not sqlite"), 0o644))
	_, err := Open(path, 0)
	require.Error(t, err)
}

func TestEnsureSchema_DetectsNewerVersionDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path, 0)
	require.NoError(t, err)
	_, err = store.db.Exec(`INSERT OR REPLACE INTO schema_migrations(version) VALUES (?)`, SchemaVersion+1)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := sql.Open(driverName, "file:"+path)
	require.NoError(t, err)
	defer db.Close()
	err = EnsureSchema(db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestIsCorruptError(t *testing.T) {
	assert.True(t, IsCorruptError(errors.New("database disk image is malformed")))
	assert.False(t, IsCorruptError(nil))
}

func TestCommitHashOutsideRepository(t *testing.T) {
	assert.Empty(t, CommitHash(context.Background(), t.TempDir()))
}
