package upload

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/resume"
)

// SniffLen is how many leading bytes ValidateResumeBySniff needs.
const SniffLen = 512

var allowedExt = map[string]resume.Kind{
	".pdf":  resume.KindPDF,
	".docx": resume.KindDOCX,
	".txt":  resume.KindText,
	".md":   resume.KindText,
}

var allowedMime = map[resume.Kind][]string{
	resume.KindPDF:  {"application/pdf"},
	resume.KindDOCX: {"application/zip", "application/octet-stream"},
	resume.KindText: {"text/plain"},
}

var (
	ErrUnsupportedType = errors.New("Only PDF, DOCX and TXT resumes are supported")
	ErrScriptableType  = errors.New("HTML and XML content is not allowed")
	ErrTypeMismatch    = errors.New("The file content does not match its extension")
)

// ValidateResumeBySniff checks the filename extension and the first bytes
// (head) of an upload and returns the document kind.
func ValidateResumeBySniff(filename string, head []byte) (resume.Kind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	kind, ok := allowedExt[ext]
	if !ok {
		return "", ErrUnsupportedType
	}

	detected := http.DetectContentType(head)

	// Block obvious scriptable types regardless of extension
	if strings.HasPrefix(detected, "text/html") || strings.HasPrefix(detected, "application/xhtml") {
		return "", ErrScriptableType
	}
	if strings.HasPrefix(detected, "text/xml") || strings.HasPrefix(detected, "application/xml") || detected == "image/svg+xml" {
		return "", ErrScriptableType
	}

	for _, mime := range allowedMime[kind] {
		if strings.HasPrefix(detected, mime) {
			return kind, nil
		}
	}
	return "", ErrTypeMismatch
}
