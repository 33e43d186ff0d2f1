package corpus

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/multisense/internal/cleaner"
	"github.com/hyperjump/multisense/internal/models"
	"github.com/hyperjump/multisense/internal/storage"
)

type fixture struct {
	dir      string
	out      string
	ledger   *storage.SQLiteLedger
	pipeline *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	ledger, err := storage.NewSQLiteLedger(filepath.Join(dir, "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })
	c, err := cleaner.New(cleaner.StemmerNone)
	require.NoError(t, err)
	out := filepath.Join(dir, "cleaned")
	return &fixture{
		dir:      dir,
		out:      out,
		ledger:   ledger,
		pipeline: New(c, WithLedger(ledger), WithOutputDir(out)),
	}
}

func (f *fixture) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestOutputPath(t *testing.T) {
	p := New(nil, WithOutputDir("/out"))
	assert.Equal(t, "/out/notes.txt", p.OutputPath("/corpus/notes.pdf"))
	assert.Equal(t, "/out/raw.txt", p.OutputPath("raw.txt"))
}

func TestCleanFile(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "raw.txt", "The Quick brown fox!\n\n123 zebras\n")
	dst := filepath.Join(f.out, "clean.txt")

	rec, err := f.pipeline.CleanFile(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Equal(t, models.CleanStatusOK, rec.Status)
	assert.Equal(t, int64(3), rec.Lines)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, "quick brown fox\n\nzebras\n", readFile(t, dst))

	stored, err := f.ledger.Get(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
	assert.Equal(t, dst, stored.OutputPath)

	entries, err := os.ReadDir(f.out)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCleanFile_MissingInput(t *testing.T) {
	f := newFixture(t)
	src := filepath.Join(f.dir, "missing.txt")
	dst := filepath.Join(f.out, "missing.txt")

	rec, err := f.pipeline.CleanFile(context.Background(), src, dst)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	require.NotNil(t, rec)
	assert.Equal(t, models.CleanStatusFailed, rec.Status)
	assert.NoFileExists(t, dst)

	stored, err := f.ledger.Get(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, models.CleanStatusFailed, stored.Status)
	assert.NotEmpty(t, stored.Error)
}

func TestCleanFile_FailureKeepsPreviousOutput(t *testing.T) {
	f := newFixture(t)
	dst := filepath.Join(f.out, "keep.txt")
	require.NoError(t, os.MkdirAll(f.out, 0755))
	require.NoError(t, os.WriteFile(dst, []byte("previous\n"), 0644))
	src := f.write(t, "broken.docx", "not a zip")

	_, err := f.pipeline.CleanFile(context.Background(), src, dst)
	require.Error(t, err)
	assert.Equal(t, "previous\n", readFile(t, dst))
}

func TestSync_SkipsUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := f.write(t, "doc.md", "Zebras graze\n")

	rec, skipped, err := f.pipeline.Sync(ctx, src)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, filepath.Join(f.out, "doc.txt"), rec.OutputPath)

	_, skipped, err = f.pipeline.Sync(ctx, src)
	require.NoError(t, err)
	assert.True(t, skipped)

	require.NoError(t, os.WriteFile(src, []byte("Zebras graze quietly\n"), 0644))
	later := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(src, later, later))
	_, skipped, err = f.pipeline.Sync(ctx, src)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.Equal(t, "zebras graze quietly\n", readFile(t, filepath.Join(f.out, "doc.txt")))
}

func TestSync_RecleansWhenOutputMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := f.write(t, "doc.txt", "zebra\n")

	rec, _, err := f.pipeline.Sync(ctx, src)
	require.NoError(t, err)
	require.NoError(t, os.Remove(rec.OutputPath))

	_, skipped, err := f.pipeline.Sync(ctx, src)
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.FileExists(t, rec.OutputPath)
}

func TestRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := f.write(t, "doc.txt", "zebra\n")
	rec, _, err := f.pipeline.Sync(ctx, src)
	require.NoError(t, err)

	require.NoError(t, f.pipeline.Remove(ctx, src))
	assert.NoFileExists(t, rec.OutputPath)
	_, err = f.ledger.Get(ctx, src)
	assert.ErrorIs(t, err, storage.ErrRecordNotFound)

	assert.NoError(t, f.pipeline.Remove(ctx, src), "removing twice is not an error")
}

func TestCleanPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.write(t, "a.txt", "alpha zebra\n")
	b := f.write(t, "b.txt", "beta zebra\n")
	missing := filepath.Join(f.dir, "nope.txt")

	records, err := f.pipeline.CleanPaths(ctx, []string{a, missing, b}, "")
	require.Error(t, err, "the missing input is reported")
	require.Len(t, records, 3)
	assert.Equal(t, models.CleanStatusOK, records[0].Status)
	assert.Equal(t, models.CleanStatusFailed, records[1].Status)
	assert.Equal(t, models.CleanStatusOK, records[2].Status, "later inputs still run")
	assert.Equal(t, "beta zebra\n", readFile(t, filepath.Join(f.out, "b.txt")))
}

func TestCleanPaths_SingleOutputFile(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "data.txt", "Zebras, 42 of them!\n")
	dst := filepath.Join(f.dir, "cleaned_data.txt")

	records, err := f.pipeline.CleanPaths(context.Background(), []string{src}, dst)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "zebras\n", readFile(t, dst))
}

func TestCleanPaths_OutputDirectory(t *testing.T) {
	f := newFixture(t)
	src := f.write(t, "data.txt", "zebra\n")
	dir := filepath.Join(f.dir, "elsewhere")
	require.NoError(t, os.MkdirAll(dir, 0755))

	_, err := f.pipeline.CleanPaths(context.Background(), []string{src}, dir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "data.txt"))
}

func TestSync_RelativeAndAbsolutePathsShareRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src := f.write(t, "doc.txt", "zebra\n")
	chdir(t, f.dir)

	rec, _, err := f.pipeline.Sync(ctx, "doc.txt")
	require.NoError(t, err)
	assert.Equal(t, src, rec.SourcePath)

	_, skipped, err := f.pipeline.Sync(ctx, src)
	require.NoError(t, err)
	assert.True(t, skipped)
	n, err := f.ledger.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
