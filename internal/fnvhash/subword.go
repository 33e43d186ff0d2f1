package fnvhash

import (
	"errors"
	"fmt"
)

// ErrInvalidSubwordConfig is returned when n-gram bounds or the bucket count are unusable.
var ErrInvalidSubwordConfig = errors.New("invalid subword config")

// SubwordConfig holds the character n-gram settings of a trained model.
type SubwordConfig struct {
	MinN   int    `yaml:"minn" json:"minn"`
	MaxN   int    `yaml:"maxn" json:"maxn"`
	Bucket uint32 `yaml:"bucket" json:"bucket"`
}

// DefaultSubwordConfig matches the trainer's defaults (minn 3, maxn 6, 2M buckets).
func DefaultSubwordConfig() SubwordConfig {
	return SubwordConfig{MinN: 3, MaxN: 6, Bucket: 2000000}
}

// Validate checks the n-gram bounds and bucket count.
func (c SubwordConfig) Validate() error {
	if c.MinN < 1 {
		return fmt.Errorf("%w: minn must be at least 1, got %d", ErrInvalidSubwordConfig, c.MinN)
	}
	if c.MaxN < c.MinN {
		return fmt.Errorf("%w: maxn %d is below minn %d", ErrInvalidSubwordConfig, c.MaxN, c.MinN)
	}
	if c.Bucket == 0 {
		return fmt.Errorf("%w: bucket must be positive", ErrInvalidSubwordConfig)
	}
	return nil
}

// Subword is one character n-gram of a word and where it lands in the input matrix.
type Subword struct {
	NGram  string `json:"ngram"`
	Hash   uint32 `json:"hash"`
	Bucket uint32 `json:"bucket"`
	// Row is the input-matrix row: vocabulary size plus bucket.
	Row int64 `json:"row"`
}

// Subwords returns the n-grams of BOW+word+EOW in generation order.
// A 1-gram made only of a boundary marker is skipped. nwords is the
// vocabulary size used to offset bucket indices into matrix rows.
func Subwords(word string, nwords int, cfg SubwordConfig) ([]Subword, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	runes := []rune(BOW + word + EOW)
	var out []Subword
	for i := range runes {
		for n := 1; n <= cfg.MaxN && i+n <= len(runes); n++ {
			if n < cfg.MinN {
				continue
			}
			if n == 1 && (i == 0 || i+n == len(runes)) {
				continue
			}
			ngram := string(runes[i : i+n])
			h := Hash(ngram)
			bucket := h % cfg.Bucket
			out = append(out, Subword{
				NGram:  ngram,
				Hash:   h,
				Bucket: bucket,
				Row:    int64(nwords) + int64(bucket),
			})
		}
	}
	return out, nil
}
