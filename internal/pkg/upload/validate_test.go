package upload

import (
	"testing"

	"github.com/ManuelReschke/ProposalCraft/internal/pkg/resume"
	"github.com/stretchr/testify/assert"
)

func TestValidateResumeBySniff(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		head     []byte
		kind     resume.Kind
		err      error
	}{
		{"pdf", "cv.PDF", []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3"), resume.KindPDF, nil},
		{"docx", "cv.docx", []byte("PK\x03\x04\x14\x00\x06\x00"), resume.KindDOCX, nil},
		{"text", "cv.txt", []byte("Jane Doe, Go developer"), resume.KindText, nil},
		{"markdown", "cv.md", []byte("# Jane Doe"), resume.KindText, nil},
		{"unknown extension", "cv.exe", []byte("MZ"), "", ErrUnsupportedType},
		{"html disguised as text", "cv.txt", []byte("<!DOCTYPE html><html><script>"), "", ErrScriptableType},
		{"xml disguised as text", "cv.txt", []byte(`<?xml version="1.0"?><a/>`), "", ErrScriptableType},
		{"pdf extension with text body", "cv.pdf", []byte("hello"), "", ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ValidateResumeBySniff(tt.filename, tt.head)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.err, err)
		})
	}
}
