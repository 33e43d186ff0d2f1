// Package cleaner normalizes raw corpus text into the token lines used to train embeddings.
package cleaner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
	"go.uber.org/zap"

	_ "github.com/blevesearch/bleve/v2/analysis/lang/en"
	_ "github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	_ "github.com/blevesearch/bleve/v2/analysis/token/porter"
	_ "github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
)

// Stemmer names accepted by New.
const (
	StemmerSnowball = "snowball"
	StemmerPorter   = "porter"
	StemmerNone     = "none"
)

// Built-in Bleve component names.
const (
	unicodeTokenizerName = "unicode"
	lowercaseFilterName  = "to_lower"
	stopFilterName       = "stop_en"
	snowballStemmerName  = "stemmer_en_snowball"
	porterStemmerName    = "stemmer_porter"
)

// DefaultProgressEvery is how many lines pass between progress log entries.
const DefaultProgressEvery = 10000

// ErrUnknownStemmer is returned for a stemmer name other than snowball, porter or none.
var ErrUnknownStemmer = errors.New("unknown stemmer")

// asciiPunctuation is every printable ASCII character that is neither a letter, digit nor space.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Cleaner turns raw lines into lowercase, punctuation- and digit-free,
// stop-word-filtered, stemmed tokens joined by single spaces.
type Cleaner struct {
	analyzer      analysis.Analyzer
	progressEvery int
	logger        *zap.Logger
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithLogger sets the logger used for progress reports.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cleaner) { c.logger = l }
}

// WithProgressEvery sets the progress interval in lines; zero or less disables progress logs.
func WithProgressEvery(n int) Option {
	return func(c *Cleaner) { c.progressEvery = n }
}

// New builds a cleaner whose chain is unicode tokenizer -> lowercase -> English stop words -> stemmer.
func New(stemmer string, opts ...Option) (*Cleaner, error) {
	a, err := newAnalyzer(registry.NewCache(), stemmer)
	if err != nil {
		return nil, err
	}
	c := &Cleaner{
		analyzer:      a,
		progressEvery: DefaultProgressEvery,
		logger:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newAnalyzer(cache *registry.Cache, stemmer string) (*analysis.DefaultAnalyzer, error) {
	tokenizer, err := cache.TokenizerNamed(unicodeTokenizerName)
	if err != nil {
		return nil, err
	}
	names := []string{lowercaseFilterName, stopFilterName}
	switch stemmer {
	case StemmerSnowball, "":
		names = append(names, snowballStemmerName)
	case StemmerPorter:
		names = append(names, porterStemmerName)
	case StemmerNone:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStemmer, stemmer)
	}
	filters := make([]analysis.TokenFilter, 0, len(names))
	for _, name := range names {
		f, err := cache.TokenFilterNamed(name)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &analysis.DefaultAnalyzer{
		Tokenizer:    tokenizer,
		TokenFilters: filters,
	}, nil
}

// normalize lowercases text and drops ASCII punctuation and digits.
func normalize(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || (r < unicode.MaxASCII && strings.ContainsRune(asciiPunctuation, r)) {
			return -1
		}
		return r
	}, strings.ToLower(text))
}

// CleanLine cleans a single line. The result has no trailing newline and is
// empty when nothing survives.
func (c *Cleaner) CleanLine(line string) string {
	text := normalize(line)
	if strings.TrimSpace(text) == "" {
		return ""
	}
	tokens := c.analyzer.Analyze([]byte(text))
	words := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		term := strings.TrimSpace(string(tok.Term))
		if term == "" {
			continue
		}
		words = append(words, term)
	}
	return strings.Join(words, " ")
}

// Stats summarizes one stream.
type Stats struct {
	Lines  int64 `json:"lines"`
	Tokens int64 `json:"tokens"`
}

// CleanStream cleans r line by line into w, writing exactly one output line per input line.
// It stops between lines when ctx is cancelled.
func (c *Cleaner) CleanStream(ctx context.Context, r io.Reader, w io.Writer) (Stats, error) {
	var stats Stats
	br := bufio.NewReaderSize(r, 64*1024)
	bw := bufio.NewWriter(w)
	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line, readErr := br.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return stats, fmt.Errorf("read line %d: %w", stats.Lines+1, readErr)
		}
		if line == "" && readErr == io.EOF {
			break
		}
		if c.progressEvery > 0 && stats.Lines > 0 && stats.Lines%int64(c.progressEvery) == 0 {
			c.logger.Info("cleaning progress", zap.Int64("lines", stats.Lines))
		}
		cleaned := c.CleanLine(strings.TrimRight(line, "\r\n"))
		if cleaned != "" {
			stats.Tokens += int64(strings.Count(cleaned, " ") + 1)
		}
		if _, err := bw.WriteString(cleaned); err != nil {
			return stats, fmt.Errorf("write line %d: %w", stats.Lines+1, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return stats, fmt.Errorf("write line %d: %w", stats.Lines+1, err)
		}
		stats.Lines++
		if readErr == io.EOF {
			break
		}
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	return stats, nil
}
