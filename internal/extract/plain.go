package extract

import (
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// extractPlain returns content as string with invalid UTF-8 sequences replaced by U+FFFD.
func extractPlain(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), content)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// plainReader streams a plain text file with the same replacement as extractPlain.
type plainReader struct {
	io.Reader
	io.Closer
}

func newPlainReader(rc io.ReadCloser) io.ReadCloser {
	return plainReader{
		Reader: transform.NewReader(rc, unicode.UTF8.NewDecoder()),
		Closer: rc,
	}
}
