package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
)

// odfContentPath is the path to the body of an OpenDocument package (.odt, .odp, .ods).
const odfContentPath = "content.xml"

// odfBlock matches a text:p or text:h element including nested spans.
var odfBlock = regexp.MustCompile(`(?s)<text:(p|h)(?:\s[^>]*)?>(.*?)</text:(?:p|h)>`)

// extractOpenDocument returns one line per non-empty text:p or text:h element, in document order.
func extractOpenDocument(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: not a zip: %w", err)
	}
	contentXML, err := readZipEntry(zr, odfContentPath)
	if err != nil {
		return "", fmt.Errorf("extract OpenDocument: %w", err)
	}
	if contentXML == nil {
		return "", fmt.Errorf("extract OpenDocument: %s not found", odfContentPath)
	}
	var lines []string
	for _, m := range odfBlock.FindAllStringSubmatch(string(contentXML), -1) {
		text := strings.TrimSpace(html.UnescapeString(anyTag.ReplaceAllString(m[2], "")))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return strings.Join(lines, "\n"), nil
}
