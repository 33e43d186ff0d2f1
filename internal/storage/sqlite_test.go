package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/multisense/internal/models"
)

func newTestLedger(t *testing.T) *SQLiteLedger {
	t.Helper()
	l, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestSQLiteLedger_PutGet(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	mod := time.Date(2025, 3, 1, 12, 30, 0, 123456789, time.Local)

	r := &models.CleanRecord{
		ID:            "rec-1",
		SourcePath:    "/corpus/a.txt",
		OutputPath:    "/cleaned/a.txt",
		SourceSize:    42,
		SourceModTime: mod,
		Lines:         7,
		Status:        models.CleanStatusOK,
	}
	require.NoError(t, l.Put(ctx, r))
	assert.False(t, r.CleanedAt.IsZero(), "CleanedAt should be set")

	got, err := l.Get(ctx, "/corpus/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", got.ID)
	assert.Equal(t, "/cleaned/a.txt", got.OutputPath)
	assert.Equal(t, int64(7), got.Lines)
	assert.Equal(t, int64(42), got.SourceSize)
	assert.True(t, got.SourceModTime.Equal(mod), "mod time = %v, want %v", got.SourceModTime, mod)
	assert.True(t, got.Unchanged(42, mod), "record should match the source it was created from")
	assert.False(t, got.Unchanged(43, mod), "a size change must be detected")
}

func TestSQLiteLedger_PutReplaces(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	require.NoError(t, l.Put(ctx, &models.CleanRecord{ID: "1", SourcePath: "/a", OutputPath: "/o", Status: models.CleanStatusFailed, Error: "boom"}))
	require.NoError(t, l.Put(ctx, &models.CleanRecord{ID: "2", SourcePath: "/a", OutputPath: "/o", Status: models.CleanStatusOK, Lines: 3}))

	got, err := l.Get(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "2", got.ID)
	assert.Equal(t, models.CleanStatusOK, got.Status)
	assert.Empty(t, got.Error)
	assert.Equal(t, int64(3), got.Lines)

	n, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSQLiteLedger_NotFound(t *testing.T) {
	l := newTestLedger(t)
	_, err := l.Get(context.Background(), "/missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestSQLiteLedger_ListDelete(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	for _, p := range []string{"/c", "/a", "/b"} {
		require.NoError(t, l.Put(ctx, &models.CleanRecord{ID: p, SourcePath: p, OutputPath: p + ".out", Status: models.CleanStatusOK}))
	}

	list, err := l.List(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "/a", list[0].SourcePath)
	assert.Equal(t, "/c", list[2].SourcePath)

	page, err := l.List(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "/b", page[0].SourcePath)

	require.NoError(t, l.Delete(ctx, "/b"))
	assert.NoError(t, l.Delete(ctx, "/b"), "deleting a missing record should succeed")
	n, err := l.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
