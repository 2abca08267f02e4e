package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-matcher/internal/shared/apperr"
)

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body +
		`</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":          docxContentTypes,
		"word/document.xml":            doc,
		"word/_rels/document.xml.rels": docxRels,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func para(text string) string {
	return `<w:p><w:r><w:t>` + text + `</w:t></w:r></w:p>`
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExtractTextRoundTrip(t *testing.T) {
	content := "Jane Doe\nSoftware Engineer\n\n- Go, Python\n"
	path := writeFile(t, "resume.txt", []byte(content))

	got, err := New(0).Extract(context.Background(), path, ".txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestExtractTextLatin1Fallback(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("caf\xe9 na\xefve"))

	res, err := New(0).ExtractDetailed(context.Background(), path, ".txt")
	require.NoError(t, err)
	assert.Equal(t, "café naïve", res.Text)
	assert.Len(t, res.Warnings, 1)
}

func TestExtractUnknownExtensionIsPlainText(t *testing.T) {
	path := writeFile(t, "job.md", []byte("# Senior Engineer"))

	res, err := New(0).ExtractDetailed(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, "# Senior Engineer", res.Text)
	assert.Equal(t, FormatText, res.Format)
}

func TestExtractLegacyDocAlwaysFails(t *testing.T) {
	for _, content := range [][]byte{[]byte("plain words"), {0xd0, 0xcf, 0x11, 0xe0}, nil} {
		path := writeFile(t, "resume.doc", content)
		_, err := New(0).Extract(context.Background(), path, ".doc")

		var extErr *apperr.ExtractionError
		require.ErrorAs(t, err, &extErr)
		assert.ErrorIs(t, err, ErrLegacyDoc)
		assert.Contains(t, err.Error(), ".docx")
	}
}

func TestExtractMissingFile(t *testing.T) {
	_, err := New(0).Extract(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), ".txt")

	var extErr *apperr.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "missing.txt", extErr.File)
	assert.Equal(t, "file not found", extErr.Reason)
}

func TestExtractDocxParagraphs(t *testing.T) {
	path := writeFile(t, "resume.docx", buildDocx(t, para("Alice")+para("Engineer")))

	got, err := New(0).Extract(context.Background(), path, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "Alice\nEngineer", got)
}

func TestExtractDocxParagraphsThenCells(t *testing.T) {
	body := para("Alice") +
		`<w:p></w:p>` +
		`<w:tbl><w:tr>` +
		`<w:tc>` + para("Go") + `</w:tc>` +
		`<w:tc>` + para("  ") + `</w:tc>` +
		`<w:tc>` + para("Kubernetes") + para("Docker") + `</w:tc>` +
		`</w:tr></w:tbl>` +
		para("Engineer")
	path := writeFile(t, "resume.docx", buildDocx(t, body))

	got, err := New(0).Extract(context.Background(), path, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "Alice\nEngineer\nGo\nKubernetes\nDocker", got)
}

func TestExtractDocxIgnoresTabStopDefinitions(t *testing.T) {
	body := `<w:p><w:pPr><w:tabs><w:tab w:val="right" w:pos="9000"/></w:tabs></w:pPr>` +
		`<w:r><w:t>Alice</w:t></w:r><w:r><w:tab/><w:t>2020</w:t></w:r></w:p>` +
		para("Engineer")
	path := writeFile(t, "resume.docx", buildDocx(t, body))

	got, err := New(0).Extract(context.Background(), path, ".docx")
	require.NoError(t, err)
	assert.Equal(t, "Alice\t2020\nEngineer", got)
}

func TestExtractDocxInvalidArchive(t *testing.T) {
	path := writeFile(t, "broken.docx", []byte("not a zip"))

	_, err := New(0).Extract(context.Background(), path, ".docx")
	var extErr *apperr.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "broken.docx", extErr.File)
}

func TestExtractPDFWithoutTextFails(t *testing.T) {
	path := writeFile(t, "resume.pdf", []byte("%PDF-1.4 garbage"))

	_, err := New(0).Extract(context.Background(), path, ".pdf")
	var extErr *apperr.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Contains(t, extErr.Reason, "PDF")
}

func TestExtractUploadRemovesTempFile(t *testing.T) {
	tmpDir := t.TempDir()
	ex := &Extractor{TempDir: tmpDir}

	res, err := ex.ExtractUpload(context.Background(), "resume.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Text)

	_, err = ex.ExtractUpload(context.Background(), "resume.pdf", strings.NewReader("not a pdf"))
	var extErr *apperr.ExtractionError
	require.ErrorAs(t, err, &extErr)
	assert.Equal(t, "resume.pdf", extErr.File)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractUploadUsesDeclaredName(t *testing.T) {
	ex := &Extractor{TempDir: t.TempDir()}
	data := buildDocx(t, para("Alice")+para("Engineer"))

	res, err := ex.ExtractUpload(context.Background(), "cv.DOCX", bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, FormatDOCX, res.Format)
	assert.Equal(t, "Alice\nEngineer", res.Text)
}

func TestWithTimeout(t *testing.T) {
	ex := &Extractor{Timeout: 10 * time.Millisecond}
	_, err := ex.withTimeout(context.Background(), "slow.pdf", func() (Result, error) {
		time.Sleep(200 * time.Millisecond)
		return Result{Text: "late"}, nil
	})

	var timeoutErr *apperr.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, "extract slow.pdf", timeoutErr.Op)
}

func TestFirstSuccessFallsBack(t *testing.T) {
	strategies := []strategy{
		{name: "broken", run: func([]byte) (string, error) { return "", errors.New("bad xref") }},
		{name: "panics", run: func([]byte) (string, error) { panic("index out of range") }},
		{name: "blank", run: func([]byte) (string, error) { return "  \n ", nil }},
		{name: "works", run: func([]byte) (string, error) { return "text", nil }},
	}

	out, warnings, err := firstSuccess(strategies, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "text", out)
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0], "broken")
	assert.Contains(t, warnings[1], "panic")
	assert.Contains(t, warnings[2], "no text produced")
}

func TestFirstSuccessAllFail(t *testing.T) {
	strategies := []strategy{
		{name: "a", run: func([]byte) (string, error) { return "", nil }},
		{name: "b", run: func([]byte) (string, error) { return "", errors.New("nope") }},
	}

	_, _, err := firstSuccess(strategies, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b: nope")
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatPDF, FormatFor("PDF", ""))
	assert.Equal(t, FormatDOCX, FormatFor("", "/tmp/x.docx"))
	assert.Equal(t, FormatDOC, FormatFor(".doc", "x.docx"))
	assert.Equal(t, FormatText, FormatFor(".rtf", ""))
}
