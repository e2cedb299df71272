// Package resume turns uploaded resume documents into plain text for the
// prompt.
package resume

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/metrics"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// Kind is the declared document type.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
	KindText Kind = "text"
)

// DefaultMaxBytes is the upload ceiling when RESUME_MAX_BYTES is unset.
const DefaultMaxBytes = 5 << 20

// Failure classifies an extraction error.
type Failure string

const (
	FailureUnsupported Failure = "unsupported"
	FailureCorrupt     Failure = "corrupt"
	FailureEmpty       Failure = "empty"
)

// ExtractError is returned for every extraction failure.
type ExtractError struct {
	Kind    Kind
	Failure Failure
	Err     error
}

func (e *ExtractError) Error() string {
	msg := fmt.Sprintf("resume %s: %s", e.Kind, e.Failure)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// UserMessage is shown next to the form.
func (e *ExtractError) UserMessage() string {
	switch e.Failure {
	case FailureUnsupported:
		return "Unsupported file type. Please upload a PDF, DOCX or TXT file."
	case FailureEmpty:
		return "No text could be read from your resume. Scanned PDFs are not supported."
	}
	return "Your resume could not be read. Please check the file and try again."
}

// Extract returns the plain text of data.
func Extract(ctx context.Context, data []byte, kind Kind) (text string, err error) {
	defer func() {
		outcome := "ok"
		if err != nil {
			if ee, ok := err.(*ExtractError); ok {
				outcome = string(ee.Failure)
			} else {
				outcome = "error"
			}
		}
		metrics.ObserveExtraction(string(kind), outcome)
	}()

	switch kind {
	case KindPDF:
		text, err = extractPDF(ctx, data)
	case KindDOCX:
		text, err = extractDOCX(data)
	case KindText:
		text, err = extractText(data)
	default:
		return "", &ExtractError{Kind: kind, Failure: FailureUnsupported}
	}
	if err != nil {
		return "", err
	}

	text = normalizeWhitespace(text)
	if text == "" {
		return "", &ExtractError{Kind: kind, Failure: FailureEmpty}
	}
	return text, nil
}

func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	// The pdf reader panics on some malformed cross reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &ExtractError{Kind: KindPDF, Failure: FailureCorrupt, Err: fmt.Errorf("%v", r)}
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractError{Kind: KindPDF, Failure: FailureCorrupt, Err: err}
	}

	var parts []string
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(pageText) != "" {
			parts = append(parts, pageText)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:cr\s*/>`)
	tabTag       = regexp.MustCompile(`<w:tab\s*/>`)
	anyTag       = regexp.MustCompile(`<[^>]+>`)
)

func extractDOCX(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", &ExtractError{Kind: KindDOCX, Failure: FailureCorrupt, Err: err}
	}
	defer doc.Close()

	return stripDocumentXML(doc.Editable().GetContent()), nil
}

// stripDocumentXML reduces WordprocessingML to text, one line per paragraph.
func stripDocumentXML(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = tabTag.ReplaceAllString(content, "\t")
	content = anyTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}

func extractText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", &ExtractError{Kind: KindText, Failure: FailureCorrupt, Err: fmt.Errorf("not valid UTF-8")}
	}
	return string(data), nil
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if strings.TrimSpace(line) == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}
