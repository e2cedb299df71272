package resume

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Go &amp; Kubernetes</w:t><w:tab/><w:t>8 years</w:t></w:r></w:p>` +
	`</w:body></w:document>`

const relsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDocx(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": relsXML,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func failureOf(t *testing.T, err error) Failure {
	t.Helper()
	var ee *ExtractError
	require.True(t, errors.As(err, &ee), "expected *ExtractError, got %v", err)
	return ee.Failure
}

func TestExtractText(t *testing.T) {
	text, err := Extract(context.Background(), []byte("\xef\xbb\xbfSenior Go developer\r\n\r\n\r\n  \r\nRemote only  "), KindText)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go developer\n\nRemote only", text)
}

func TestExtractTextInvalidUTF8(t *testing.T) {
	_, err := Extract(context.Background(), []byte{0xff, 0xfe, 0xfd}, KindText)
	assert.Equal(t, FailureCorrupt, failureOf(t, err))
}

func TestExtractEmpty(t *testing.T) {
	_, err := Extract(context.Background(), []byte("  \n\t "), KindText)
	assert.Equal(t, FailureEmpty, failureOf(t, err))
}

func TestExtractUnsupported(t *testing.T) {
	_, err := Extract(context.Background(), []byte("x"), Kind("rtf"))
	e := failureOf(t, err)
	assert.Equal(t, FailureUnsupported, e)
}

func TestExtractDOCX(t *testing.T) {
	text, err := Extract(context.Background(), buildDocx(t), KindDOCX)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo & Kubernetes\t8 years", text)
}

func TestExtractCorruptDOCX(t *testing.T) {
	_, err := Extract(context.Background(), []byte("PK not really a zip"), KindDOCX)
	assert.Equal(t, FailureCorrupt, failureOf(t, err))
}

func TestExtractCorruptPDF(t *testing.T) {
	_, err := Extract(context.Background(), []byte("%PDF-1.4\nthis is not a pdf"), KindPDF)
	assert.Equal(t, FailureCorrupt, failureOf(t, err))
}

func TestStripDocumentXML(t *testing.T) {
	got := stripDocumentXML(`<w:p><w:r><w:t>a</w:t><w:br/><w:t>b &lt;c&gt;</w:t></w:r></w:p>`)
	assert.Equal(t, "a\nb <c>\n", got)
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, (&ExtractError{Failure: FailureUnsupported}).UserMessage(), "PDF, DOCX or TXT")
	assert.Contains(t, (&ExtractError{Failure: FailureEmpty}).UserMessage(), "Scanned")
	assert.Contains(t, (&ExtractError{Failure: FailureCorrupt}).UserMessage(), "could not be read")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "äö", Truncate("äöü", 2))
	assert.Equal(t, 6000, len([]rune(Truncate(strings.Repeat("x", 7000), 6000))))
}
