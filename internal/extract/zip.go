package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
)

var anyTag = regexp.MustCompile(`<[^>]+>`)

// readZipEntry returns the contents of the named entry, or nil when it does not exist.
func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, nil
}

// paragraphLines splits markup at each closing paragraph tag and returns the
// text of every paragraph that has any. Runs inside a paragraph are joined
// without a separator because they may split a single word.
func paragraphLines(markup, closeTag string, run *regexp.Regexp) []string {
	var lines []string
	for _, para := range strings.Split(markup, closeTag) {
		var b strings.Builder
		for _, m := range run.FindAllStringSubmatch(para, -1) {
			b.WriteString(m[1])
		}
		if text := strings.TrimSpace(html.UnescapeString(b.String())); text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}
