// Package extract turns corpus source files into plain text, one paragraph, row or page per line.
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for an extension the extractor has no reader for.
var ErrUnsupported = errors.New("unsupported file type")

var plainExtensions = map[string]bool{".txt": true, ".md": true, ".rst": true, "": true}

var binaryExtractors = map[string]func([]byte) (string, error){
	".pdf":  extractPDF,
	".docx": extractDOCX,
	".xlsx": extractExcel,
	".pptx": extractPPTX,
	".odp":  extractOpenDocument,
	".ods":  extractOpenDocument,
	".odt":  extractOpenDocument,
}

// Extractor extracts line-oriented plain text from corpus files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Supported reports whether ext (with leading dot, any case) can be extracted.
func (e *Extractor) Supported(ext string) bool {
	ext = strings.ToLower(ext)
	_, ok := binaryExtractors[ext]
	return ok || plainExtensions[ext]
}

// Open returns the text of the file at path as a stream.
// Plain text files are streamed from disk with invalid UTF-8 replaced; document
// formats are converted in memory first. The caller must close the reader.
func (e *Extractor) Open(path string) (io.ReadCloser, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if plainExtensions[ext] {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		return newPlainReader(f), nil
	}
	text, err := e.Extract(path)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(text)), nil
}

// Extract reads the file at path and returns its text content.
func (e *Extractor) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !e.Supported(ext) {
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	ext = strings.ToLower(ext)
	if fn, ok := binaryExtractors[ext]; ok {
		return fn(content)
	}
	if plainExtensions[ext] {
		return extractPlain(content)
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
}
