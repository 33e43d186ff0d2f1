package embedding

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrMalformedModel marks model files whose content cannot form a consistent model.
var ErrMalformedModel = errors.New("malformed model")

// LoadError describes a model-load failure with its file and, when known, line.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("load model %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("load model %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func malformed(path string, line int, format string, args ...any) *LoadError {
	return &LoadError{Path: path, Line: line, Err: fmt.Errorf("%w: %s", ErrMalformedModel, fmt.Sprintf(format, args...))}
}

// PrototypePath returns the default vector file for a prototype of the model at basename:
// basename.vec for prototype 1 and basename<N>.vec for prototype N.
func PrototypePath(basename string, prototype int) string {
	if prototype == 1 {
		return basename + ".vec"
	}
	return fmt.Sprintf("%s%d.vec", basename, prototype)
}

const maxLineBytes = 64 << 20

// Loader reads fastText-style .vec text files, one per prototype.
type Loader struct {
	logger *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger used for load progress.
func WithLoaderLogger(l *zap.Logger) LoaderOption {
	return func(ld *Loader) { ld.logger = l }
}

// NewLoader creates a loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadBasename loads the given prototypes of the model at basename.
// overrides replaces the default path of individual prototypes.
func (l *Loader) LoadBasename(basename string, overrides map[int]string, prototypes ...int) (*MemoryStore, error) {
	paths := make(map[int]string, len(prototypes))
	for _, id := range prototypes {
		if p, ok := overrides[id]; ok && p != "" {
			paths[id] = p
		} else {
			paths[id] = PrototypePath(basename, id)
		}
	}
	return l.Load(paths)
}

// Load reads one file per prototype id. The lowest prototype id fixes the
// vocabulary order; every other file must list the same words with the same dimension.
func (l *Loader) Load(paths map[int]string) (*MemoryStore, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no model files given")
	}
	ids := make([]int, 0, len(paths))
	for id := range paths {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	first := paths[ids[0]]
	words, dim, data, err := readVecFile(first)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("prototype table loaded",
		zap.Int("prototype", ids[0]), zap.String("path", first),
		zap.Int("words", len(words)), zap.Int("dim", dim))

	index := make(map[string]int, len(words))
	for i, w := range words {
		if _, dup := index[w]; dup {
			return nil, malformed(first, 0, "duplicate word %q", w)
		}
		index[w] = i
	}

	tables := map[int][]float64{ids[0]: data}
	for _, id := range ids[1:] {
		path := paths[id]
		otherWords, otherDim, otherData, err := readVecFile(path)
		if err != nil {
			return nil, err
		}
		if otherDim != dim {
			return nil, malformed(path, 0, "dimension %d, prototype %d has %d", otherDim, ids[0], dim)
		}
		if len(otherWords) != len(words) {
			return nil, malformed(path, 0, "%d words, prototype %d has %d", len(otherWords), ids[0], len(words))
		}
		ordered := make([]float64, len(data))
		seen := make([]bool, len(words))
		for j, w := range otherWords {
			i, ok := index[w]
			if !ok {
				return nil, malformed(path, 0, "word %q is not in prototype %d", w, ids[0])
			}
			if seen[i] {
				return nil, malformed(path, 0, "duplicate word %q", w)
			}
			seen[i] = true
			copy(ordered[i*dim:(i+1)*dim], otherData[j*dim:(j+1)*dim])
		}
		tables[id] = ordered
		l.logger.Debug("prototype table loaded",
			zap.Int("prototype", id), zap.String("path", path),
			zap.Int("words", len(otherWords)), zap.Int("dim", otherDim))
	}

	store, err := NewMemoryStore(words, dim, tables)
	if err != nil {
		return nil, &LoadError{Path: first, Err: fmt.Errorf("%w: %v", ErrMalformedModel, err)}
	}
	l.logger.Info("model loaded",
		zap.Int("words", store.Size()), zap.Int("dim", store.Dim()), zap.Ints("prototypes", store.Prototypes()))
	return store, nil
}

// readVecFile parses "word v1 ... vD" lines with an optional "count dim" header.
// A first line of two integers is only a header when the next row has dim
// components and, for dim 1, when the row count matches; otherwise it is a
// one-dimensional row whose word happens to be a number.
func readVecFile(path string) (words []string, dim int, data []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, nil, &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	addRow := func(lineNo int, fields []string) error {
		if dim == 0 {
			dim = len(fields) - 1
			if dim <= 0 {
				return malformed(path, lineNo, "no vector components")
			}
		}
		if len(fields)-1 != dim {
			return malformed(path, lineNo, "got %d components, want %d", len(fields)-1, dim)
		}
		for _, field := range fields[1:] {
			v, perr := strconv.ParseFloat(field, 64)
			if perr != nil {
				return malformed(path, lineNo, "bad component %q", field)
			}
			data = append(data, v)
		}
		words = append(words, fields[0])
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1<<20), maxLineBytes)
	declared := -1
	var (
		header    []string
		headerDim int
		pending   bool
	)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if lineNo == 1 {
			if count, hdim, ok := parseHeader(fields); ok {
				header, headerDim, pending = fields, hdim, true
				declared = count
				continue
			}
		}
		if pending {
			pending = false
			if len(fields)-1 != headerDim {
				if err := addRow(1, header); err != nil {
					return nil, 0, nil, err
				}
				declared, header = -1, nil
			}
		}
		if err := addRow(lineNo, fields); err != nil {
			return nil, 0, nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, nil, &LoadError{Path: path, Line: lineNo, Err: err}
	}
	if len(words) == 0 {
		return nil, 0, nil, malformed(path, 0, "no vectors")
	}
	if declared >= 0 && declared != len(words) {
		if header == nil || dim != 1 {
			return nil, 0, nil, malformed(path, 0, "header declares %d words, found %d", declared, len(words))
		}
		v, _ := strconv.ParseFloat(header[1], 64)
		words = append([]string{header[0]}, words...)
		data = append([]float64{v}, data...)
	}
	return words, dim, data, nil
}

// parseHeader reports whether fields can be a "count dim" header line.
func parseHeader(fields []string) (count, dim int, ok bool) {
	if len(fields) != 2 {
		return 0, 0, false
	}
	count, errCount := strconv.Atoi(fields[0])
	dim, errDim := strconv.Atoi(fields[1])
	if errCount != nil || errDim != nil || count < 0 || dim <= 0 {
		return 0, 0, false
	}
	return count, dim, true
}
