// Package extract turns uploaded résumé PDFs into plain text.
package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/ledongthuc/pdf"

	"techstep-backend/internal/shared/telemetry"
)

// DefaultMaxWords is the word budget applied when none is configured.
const DefaultMaxWords = 1500

// ExtractPDF returns the text of every page in page order, truncated to
// maxWords. Unreadable input yields an empty string and a nil error; the
// only error returned is the context's.
func ExtractPDF(ctx context.Context, data []byte, maxWords int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", nil
	}
	text, err := readPDF(data)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if err != nil {
		telemetry.Warn("extract.pdf_unreadable", map[string]any{
			"bytes": len(data),
			"error": err,
		})
		return "", nil
	}
	return TruncateWords(text, maxWords), nil
}

// TruncateWords keeps the first n whitespace-delimited words joined by single
// spaces. Text within budget, or n <= 0, is returned unchanged.
func TruncateWords(text string, n int) string {
	if n <= 0 {
		return text
	}
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}

type pageTextFunc func(page int) (string, error)

func readPDF(data []byte) (text string, err error) {
	// The parser panics on some malformed documents.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = &panicError{value: rec}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	fonts := make(map[string]*pdf.Font)
	return joinPages(reader.NumPage(), func(i int) (string, error) {
		page := reader.Page(i)
		if page.V.IsNull() {
			return "", nil
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				f := page.Font(name)
				fonts[name] = &f
			}
		}
		return page.GetPlainText(fonts)
	})
}

// joinPages concatenates pages 1..n. Any page error aborts extraction.
func joinPages(n int, pageText pageTextFunc) (string, error) {
	var buf strings.Builder
	for i := 1; i <= n; i++ {
		s, err := pageText(i)
		if err != nil {
			return "", err
		}
		buf.WriteString(s)
	}
	return buf.String(), nil
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return "pdf parser panic"
}
