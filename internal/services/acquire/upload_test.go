package acquire

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidecraft/slidecraft/internal/common"
	"github.com/slidecraft/slidecraft/internal/models"
)

const docxDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph of the document.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph</w:t></w:r><w:r><w:t xml:space="preserve"> with two runs.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Line one</w:t><w:br/><w:t>line two.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func buildDocx(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	f, err := writer.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func newTestExtractor(t *testing.T) *UploadExtractor {
	t.Helper()
	return NewUploadExtractor(common.GetLogger())
}

func TestExtractDocx(t *testing.T) {
	extractor := newTestExtractor(t)
	data := buildDocx(t, docxDocument)

	content, err := extractor.Extract(context.Background(), "notes.docx", data)
	require.NoError(t, err)

	assert.Equal(t, "docx", content.Format)
	assert.Equal(t, "notes.docx", content.Filename)
	assert.Contains(t, content.Text, "First paragraph of the document.")
	assert.Contains(t, content.Text, "Second paragraph with two runs.")
	assert.Contains(t, content.Text, "Line one\nline two.")
}

func TestExtractDocxInvalidArchive(t *testing.T) {
	extractor := newTestExtractor(t)

	_, err := extractor.Extract(context.Background(), "broken.docx", []byte("not a zip"))
	require.Error(t, err)

	var parseErr *models.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestExtractDocxMissingDocument(t *testing.T) {
	extractor := newTestExtractor(t)

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	f, err := writer.Create("word/other.xml")
	require.NoError(t, err)
	f.Write([]byte("<doc/>"))
	require.NoError(t, writer.Close())

	_, err = extractor.Extract(context.Background(), "empty.docx", buf.Bytes())
	assert.Error(t, err)
}

func TestExtractUnsupportedFormat(t *testing.T) {
	extractor := newTestExtractor(t)

	_, err := extractor.Extract(context.Background(), "slides.pptx", []byte("data"))
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)

	_, err = extractor.Extract(context.Background(), "README", []byte("data"))
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestExtractInvalidPDF(t *testing.T) {
	extractor := newTestExtractor(t)

	_, err := extractor.Extract(context.Background(), "broken.pdf", []byte("not a pdf"))
	assert.Error(t, err)
}

func buildPDF(t *testing.T, text string) []byte {
	t.Helper()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(180, 8, text, "", "L", false)
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestExtractPDFConcurrently(t *testing.T) {
	extractor := newTestExtractor(t)

	// Parallel extractions must not trip over each other's scratch files
	docs := make([][]byte, 8)
	for i := range docs {
		docs[i] = buildPDF(t, fmt.Sprintf("Document number %d.", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(docs))
	for i := range docs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := extractor.Extract(context.Background(), fmt.Sprintf("doc_%d.pdf", i), docs[i])
			if err != nil {
				errs[i] = err
				return
			}
			if content.PageCount != 1 {
				errs[i] = fmt.Errorf("doc %d: expected one page, got %d", i, content.PageCount)
			}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "extraction %d", i)
	}
}
