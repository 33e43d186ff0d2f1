// Package corpus runs corpus files through extraction and cleaning and keeps the cleaning ledger current.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/multisense/internal/cleaner"
	"github.com/hyperjump/multisense/internal/extract"
	"github.com/hyperjump/multisense/internal/metrics"
	"github.com/hyperjump/multisense/internal/models"
	"github.com/hyperjump/multisense/internal/storage"
	"github.com/hyperjump/multisense/pkg/utils"
)

// Pipeline cleans corpus files into an output directory.
type Pipeline struct {
	cleaner   *cleaner.Cleaner
	extractor *extract.Extractor
	ledger    storage.Ledger
	outputDir string
	logger    *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLedger records every run in l. Without a ledger Sync always cleans.
func WithLedger(l storage.Ledger) Option {
	return func(p *Pipeline) { p.ledger = l }
}

// WithOutputDir sets where Sync and CleanPaths write cleaned files.
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) { p.outputDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = utils.OrNop(l) }
}

// New creates a pipeline around c.
func New(c *cleaner.Cleaner, opts ...Option) *Pipeline {
	p := &Pipeline{
		cleaner:   c,
		extractor: extract.NewExtractor(),
		outputDir: "cleaned",
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OutputPath returns the cleaned file for src: its base name with a .txt extension in the output directory.
func (p *Pipeline) OutputPath(src string) string {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(p.outputDir, stem+".txt")
}

// sourceKey is the ledger key of a source: its absolute, cleaned path, so a
// file cleaned by relative path and later seen by the watcher shares one record.
func sourceKey(src string) string {
	if abs, err := filepath.Abs(src); err == nil {
		return abs
	}
	return filepath.Clean(src)
}

// CleanFile cleans src into dst. Output goes to a temporary file that is renamed
// over dst only on success, so a failure never leaves partial output behind.
// The returned record describes the run and is also stored in the ledger; it is
// non-nil even when err is not.
func (p *Pipeline) CleanFile(ctx context.Context, src, dst string) (*models.CleanRecord, error) {
	src = sourceKey(src)
	rec := &models.CleanRecord{
		ID:         uuid.New().String(),
		SourcePath: src,
		OutputPath: dst,
		Status:     models.CleanStatusOK,
	}
	p.logger.Info("cleaning started", zap.String("source", src), zap.String("output", dst))

	lines, err := p.cleanInto(ctx, src, dst, rec)
	rec.Lines = lines
	rec.CleanedAt = time.Now()
	if err != nil {
		rec.Status = models.CleanStatusFailed
		rec.Error = err.Error()
		p.logger.Error("cleaning failed", zap.String("source", src), zap.Error(err))
	} else {
		p.logger.Info("cleaning complete",
			zap.String("source", src), zap.String("output", dst), zap.Int64("lines", lines))
		metrics.ObserveCleanedLines(lines)
	}
	metrics.ObserveCleanedFile(rec.Status)

	if p.ledger != nil {
		if perr := p.ledger.Put(ctx, rec); perr != nil {
			p.logger.Warn("failed to record cleaning run", zap.String("source", src), zap.Error(perr))
			if err == nil {
				err = perr
			}
		}
	}
	return rec, err
}

func (p *Pipeline) cleanInto(ctx context.Context, src, dst string, rec *models.CleanRecord) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("input file %s not found: %w", src, err)
		}
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("%s is a directory", src)
	}
	rec.SourceSize = info.Size()
	rec.SourceModTime = info.ModTime()

	in, err := p.extractor.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	stats, err := p.cleaner.CleanStream(ctx, in, tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close output: %w", cerr)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return stats.Lines, err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return stats.Lines, fmt.Errorf("failed to move output into place: %w", err)
	}
	return stats.Lines, nil
}

// Sync cleans src into the output directory unless the ledger shows a successful
// run for the same size and modification time. skipped reports whether cleaning was skipped.
func (p *Pipeline) Sync(ctx context.Context, src string) (rec *models.CleanRecord, skipped bool, err error) {
	src = sourceKey(src)
	if p.ledger != nil {
		info, statErr := os.Stat(src)
		if statErr == nil {
			prev, getErr := p.ledger.Get(ctx, src)
			if getErr != nil && !errors.Is(getErr, storage.ErrRecordNotFound) {
				return nil, false, getErr
			}
			if prev.Unchanged(info.Size(), info.ModTime()) {
				if _, outErr := os.Stat(prev.OutputPath); outErr == nil {
					p.logger.Debug("source unchanged, skipping", zap.String("source", src))
					return prev, true, nil
				}
			}
		}
	}
	rec, err = p.CleanFile(ctx, src, p.OutputPath(src))
	return rec, false, err
}

// Remove deletes the cleaned output of src and its ledger record.
func (p *Pipeline) Remove(ctx context.Context, src string) error {
	src = sourceKey(src)
	out := p.OutputPath(src)
	if p.ledger != nil {
		prev, err := p.ledger.Get(ctx, src)
		switch {
		case err == nil:
			out = prev.OutputPath
		case !errors.Is(err, storage.ErrRecordNotFound):
			return err
		}
		if err := p.ledger.Delete(ctx, src); err != nil {
			return err
		}
	}
	if err := os.Remove(out); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cleaned output: %w", err)
	}
	p.logger.Info("cleaned output removed", zap.String("source", src), zap.String("output", out))
	return nil
}

// CleanPaths cleans every input. When output names a file (a single input and
// output is not an existing directory) the result is written there; otherwise
// each input goes to the output directory, or to output when it is given.
// A failing input does not stop the others; all failures are joined into err.
func (p *Pipeline) CleanPaths(ctx context.Context, inputs []string, output string) ([]*models.CleanRecord, error) {
	if len(inputs) == 1 && output != "" {
		if info, err := os.Stat(output); err != nil || !info.IsDir() {
			rec, err := p.CleanFile(ctx, inputs[0], output)
			return []*models.CleanRecord{rec}, err
		}
	}
	dir := p.outputDir
	if output != "" {
		dir = output
	}
	target := &Pipeline{cleaner: p.cleaner, extractor: p.extractor, ledger: p.ledger, outputDir: dir, logger: p.logger}

	var (
		records []*models.CleanRecord
		errs    []error
	)
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		rec, err := target.CleanFile(ctx, in, target.OutputPath(in))
		records = append(records, rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", in, err))
		}
	}
	return records, errors.Join(errs...)
}
