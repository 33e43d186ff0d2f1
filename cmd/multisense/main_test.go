package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/multisense/internal/config"
	"github.com/hyperjump/multisense/internal/models"
)

// writeProject lays out a two-prototype model and a config in a temp dir.
func writeProject(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	proto1 := "5 2\ncar 1 0\nauto 0.9 0.1\nbus 0.7 0.3\ncat 0 1\ntree -1 0\n"
	proto2 := "car 0 1\nauto 0.1 0.9\nbus 1 0\ncat 0.6 0.4\ntree 0 -1\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model.vec"), []byte(proto1), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "model2.vec"), []byte(proto2), 0644))
	cfg := `model:
  basename: ./model
analysis:
  top_n: 3
clean:
  output_dir: ./cleaned
  ledger_path: ./data/ledger.db
  stemmer: none
`
	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))
	return dir, configPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestLoadConfig(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		_, path := writeProject(t)
		cfg, resolved, err := loadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, path, resolved)
		assert.Equal(t, 3, cfg.Analysis.TopN)
	})
	t.Run("default path prefers ./config.yaml", func(t *testing.T) {
		dir, _ := writeProject(t)
		chdir(t, dir)
		cfg, resolved, err := loadConfig(config.DefaultPath)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "config.yaml"), resolved)
		assert.Equal(t, "none", cfg.Clean.Stemmer)
	})
	t.Run("default path without any file uses defaults", func(t *testing.T) {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			t.Skip("a system config is installed")
		}
		chdir(t, t.TempDir())
		cfg, resolved, err := loadConfig(config.DefaultPath)
		require.NoError(t, err)
		assert.Empty(t, resolved)
		assert.Equal(t, 10, cfg.Analysis.TopN)
	})
	t.Run("missing explicit file", func(t *testing.T) {
		_, _, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestAnalyzeCommand(t *testing.T) {
	_, cfg := writeProject(t)
	out, err := run(t, "--config", cfg, "analyze", "--word", "car")
	require.NoError(t, err)
	assert.Contains(t, out, "Cosine similarity between 'car' (prototype 1) and 'car' (prototype 2): 0.0000")
	assert.Contains(t, out, "appear distinct")
	assert.Contains(t, out, "   - auto: 0.9939")
	assert.Contains(t, out, "--- Analysis Complete ---")
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	_, cfg := writeProject(t)
	out, err := run(t, "--config", cfg, "analyze", "bus", "-o", "json", "--top-n", "2")
	require.NoError(t, err)
	var report models.PrototypeReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "bus", report.Word)
	assert.Len(t, report.Neighbors1, 2)
	assert.NotEmpty(t, report.ID)
}

func TestAnalyzeCommand_WordNotFound(t *testing.T) {
	_, cfg := writeProject(t)
	out, err := run(t, "--config", cfg, "analyze", "--word", "zebra")
	require.Error(t, err)
	assert.Equal(t, "'zebra' not found in the vocabulary", err.Error())
	assert.Empty(t, out, "no partial report")
}

func TestAnalyzeCommand_MissingModel(t *testing.T) {
	_, cfg := writeProject(t)
	_, err := run(t, "--config", cfg, "analyze", "--model-basename", filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load model")
}

func TestNeighborsCommand(t *testing.T) {
	_, cfg := writeProject(t)
	out, err := run(t, "--config", cfg, "neighbors", "car", "--prototype", "2", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, "Most similar words to 'car' (prototype 2):\n   - auto: 0.9939\n", out)

	_, err = run(t, "--config", cfg, "neighbors", "car", "--prototype", "7")
	assert.Error(t, err)
}

func TestHashCommand(t *testing.T) {
	_, cfg := writeProject(t)
	out, err := run(t, "--config", cfg, "hash", "a", "foobar")
	require.NoError(t, err)
	assert.Equal(t, "a\t3826002220\nfoobar\t3214735720\n", out)

	out, err = run(t, "--config", cfg, "hash", "car", "--subwords", "--nwords", "5", "--minn", "3", "--maxn", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, "car plus <ca, car, ar>")
	assert.Contains(t, lines[1], "<ca")
	assert.Contains(t, lines[3], "ar>")
}

func TestCleanAndLedgerCommands(t *testing.T) {
	dir, cfg := writeProject(t)
	src := filepath.Join(dir, "raw.txt")
	require.NoError(t, os.WriteFile(src, []byte("The Zebra, 42 times!\nSecond line\n"), 0644))
	dst := filepath.Join(dir, "out.txt")

	out, err := run(t, "--config", cfg, "clean", src, "--output", dst)
	require.NoError(t, err)
	assert.Contains(t, out, "Cleaning complete. 2 lines processed and saved to: "+dst)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "zebra times\nsecond line\n", string(data))

	out, err = run(t, "--config", cfg, "ledger")
	require.NoError(t, err)
	assert.Contains(t, out, src)
	assert.Contains(t, out, "1 of 1 records shown")

	_, err = run(t, "--config", cfg, "clean", filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "multisense version dev\n", out)
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
