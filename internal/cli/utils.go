// Package cli formats analysis results for the multisense command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/hyperjump/multisense/internal/fnvhash"
	"github.com/hyperjump/multisense/internal/models"
	"github.com/hyperjump/multisense/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteReport writes a prototype analysis report to w in the given format.
func WriteReport(w io.Writer, r *models.PrototypeReport, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, r)
	}
	writeReportText(w, r)
	return nil
}

func writeReportText(w io.Writer, r *models.PrototypeReport) {
	fmt.Fprintf(w, "\n--- Analyzing '%s' Vectors ---\n", r.Word)

	fmt.Fprintln(w, "\n--- Cosine Similarity Between Prototypes ---")
	fmt.Fprintf(w, "Cosine similarity between '%s' (prototype 1) and '%s' (prototype 2): %.4f\n",
		r.Word, r.Word, r.SelfSimilarity)
	if r.Distinct {
		fmt.Fprintf(w, "   --> The prototypes for '%s' appear distinct (similarity %.4f is low).\n", r.Word, r.SelfSimilarity)
	} else {
		fmt.Fprintf(w, "   --> The prototypes for '%s' are quite similar (similarity %.4f is high).\n", r.Word, r.SelfSimilarity)
	}

	for i, neighbors := range [][]models.SimilarityResult{r.Neighbors1, r.Neighbors2} {
		fmt.Fprintf(w, "\n--- Nearest Neighbors for '%s' Prototype %d ---\n", r.Word, i+1)
		fmt.Fprintf(w, "Most similar words to '%s' (prototype %d):\n", r.Word, i+1)
		writeNeighborLines(w, neighbors)
	}

	fmt.Fprintf(w, "\n--- Cross-Prototype Similarity Analysis for '%s' ---\n", r.Word)
	writeCross(w, r.Word, r.CrossA, 1, 2)
	writeCross(w, r.Word, r.CrossB, 2, 1)
	fmt.Fprintln(w, "\n--- Analysis Complete ---")
}

func writeCross(w io.Writer, word string, cross []models.CrossResult, from, to int) {
	fmt.Fprintf(w, "\n--- How '%s' Prototype %d relates to Prototype %d's neighbors ---\n", word, to, from)
	fmt.Fprintf(w, "Similarity of '%s' (prototype %d) to words most similar to '%s' (prototype %d):\n", word, to, word, from)
	for _, c := range cross {
		if !c.Found {
			fmt.Fprintf(w, "   - %s (Proto%d Sim: %.4f) -- Word not found for cross-analysis in Proto%d set.\n",
				c.Neighbor, from, c.NeighborScore, to)
			continue
		}
		fmt.Fprintf(w, "   - %s (Proto%d Sim: %.4f) vs %s (Proto%d): %.4f\n",
			c.Neighbor, from, c.NeighborScore, word, to, c.CrossScore)
	}
}

func writeNeighborLines(w io.Writer, neighbors []models.SimilarityResult) {
	if len(neighbors) == 0 {
		fmt.Fprintln(w, "   (no neighbours)")
		return
	}
	for _, n := range neighbors {
		fmt.Fprintf(w, "   - %s: %.4f\n", n.Word, n.Score)
	}
}

// NeighborsOutput is the JSON shape of a single-prototype neighbour query.
type NeighborsOutput struct {
	Word      string                    `json:"word"`
	Prototype int                       `json:"prototype"`
	Neighbors []models.SimilarityResult `json:"neighbors"`
}

// WriteNeighbors writes a single-prototype neighbour list.
func WriteNeighbors(w io.Writer, out NeighborsOutput, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, out)
	}
	fmt.Fprintf(w, "Most similar words to '%s' (prototype %d):\n", out.Word, out.Prototype)
	writeNeighborLines(w, out.Neighbors)
	return nil
}

// HashOutput is the hash of one string and, optionally, its subword n-grams.
type HashOutput struct {
	Input    string            `json:"input"`
	Hash     uint32            `json:"hash"`
	Subwords []fnvhash.Subword `json:"subwords,omitempty"`
}

// WriteHashes writes hash results.
func WriteHashes(w io.Writer, results []HashOutput, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, results)
	}
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%d\n", r.Input, r.Hash)
		for _, s := range r.Subwords {
			fmt.Fprintf(w, "  %s\t%d\tbucket=%d\trow=%d\n", s.NGram, s.Hash, s.Bucket, s.Row)
		}
	}
	return nil
}

// WriteLedger writes cleaning records as a table.
func WriteLedger(w io.Writer, records []*models.CleanRecord, format OutputFormat) error {
	if format == OutputJSON {
		if records == nil {
			records = []*models.CleanRecord{}
		}
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(w, "No cleaned files recorded.")
		return nil
	}
	for _, r := range records {
		fmt.Fprintf(w, "%-6s %8d lines  %s  %s -> %s\n",
			r.Status, r.Lines, r.CleanedAt.Format(time.RFC3339), r.SourcePath, r.OutputPath)
		if r.Error != "" {
			fmt.Fprintf(w, "       error: %s\n", utils.Truncate(r.Error, 120))
		}
	}
	return nil
}
