package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a document yields no extractable text.
var ErrNoText = errors.New("ingest: document has no text")

// Extractor turns raw document bytes into text.
type Extractor func(data []byte) (string, error)

// Extractors maps lowercase file extensions to their extractor. Extensions
// not listed are read as UTF-8 text.
var Extractors = map[string]Extractor{
	".pdf": ExtractPDF,
}

// Extract returns the text of the document stored under key.
func Extract(key string, data []byte) (string, error) {
	if fn, ok := Extractors[strings.ToLower(path.Ext(key))]; ok {
		return fn(data)
	}
	return string(data), nil
}

// ExtractPDF returns the plain text of every page, pages separated by a
// blank line. Pages that fail to decode are skipped.
func ExtractPDF(data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("ingest: open pdf: %w", err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}
	if len(pages) == 0 {
		return "", ErrNoText
	}
	return strings.Join(pages, "\n\n"), nil
}

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x{7f}-\x{9f}]`)
	whitespace   = regexp.MustCompile(`[\s\p{Zs}]+`)
	hangulLatin  = regexp.MustCompile(`([\x{AC00}-\x{D7A3}])([a-zA-Z])`)
	latinHangul  = regexp.MustCompile(`([a-zA-Z])([\x{AC00}-\x{D7A3}])`)
)

// CleanText normalizes chunk text before indexing: control and C1
// characters are removed, whitespace runs collapse to one space, and Hangul
// and Latin letters that touch are separated by a space.
func CleanText(s string) string {
	s = controlChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	s = hangulLatin.ReplaceAllString(s, "$1 $2")
	return latinHangul.ReplaceAllString(s, "$1 $2")
}
