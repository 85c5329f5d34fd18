package acquire

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/slidecraft/slidecraft/internal/models"
)

// UploadExtractor pulls text out of uploaded PDF and DOCX files
type UploadExtractor struct {
	logger  arbor.ILogger
	tempDir string
}

// NewUploadExtractor creates an extractor with a scratch directory for
// PDF processing
func NewUploadExtractor(logger arbor.ILogger) *UploadExtractor {
	tempDir := filepath.Join(os.TempDir(), "slidecraft-extract")
	os.MkdirAll(tempDir, 0755)

	return &UploadExtractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// Extract detects the upload format from the filename and extracts its text.
// Returns models.ErrUnsupportedFormat for anything that is not PDF or DOCX.
func (e *UploadExtractor) Extract(ctx context.Context, filename string, data []byte) (*models.UploadContent, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return e.extractPDF(ctx, filename, data)
	case ".docx":
		return e.extractDOCX(filename, data)
	default:
		return nil, models.ErrUnsupportedFormat
	}
}

// extractPDF writes the upload to a temp file and extracts page content.
// Partial extraction failures degrade to empty pages instead of failing
// the whole upload.
func (e *UploadExtractor) extractPDF(ctx context.Context, filename string, data []byte) (*models.UploadContent, error) {
	// Per-call temp paths: concurrent extractions must not share files
	temp, err := os.CreateTemp(e.tempDir, "extract_*.pdf")
	if err != nil {
		return nil, &models.ParseError{Source: filename, Err: fmt.Errorf("failed to create temp PDF file: %w", err)}
	}
	tempFile := temp.Name()
	defer os.Remove(tempFile)
	if _, err := temp.Write(data); err != nil {
		temp.Close()
		return nil, &models.ParseError{Source: filename, Err: fmt.Errorf("failed to write temp PDF file: %w", err)}
	}
	if err := temp.Close(); err != nil {
		return nil, &models.ParseError{Source: filename, Err: fmt.Errorf("failed to write temp PDF file: %w", err)}
	}

	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return nil, &models.ParseError{Source: filename, Err: fmt.Errorf("failed to read PDF context: %w", err)}
	}
	pageCount := pdfCtx.PageCount

	outDir, err := os.MkdirTemp(e.tempDir, "pages_")
	if err != nil {
		return nil, &models.ParseError{Source: filename, Err: fmt.Errorf("failed to create page output dir: %w", err)}
	}
	defer os.RemoveAll(outDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		e.logger.Warn().Str("filename", filename).Err(err).Msg("Failed to extract PDF content")
		return &models.UploadContent{
			Filename:  filename,
			Format:    "pdf",
			PageCount: pageCount,
		}, nil
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		} else if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err == nil {
			pageTexts[pageNum] = string(content)
		}
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text := strings.TrimSpace(pageTexts[pageNum])
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(text)
	}

	return &models.UploadContent{
		Filename:  filename,
		Format:    "pdf",
		Text:      builder.String(),
		PageCount: pageCount,
	}, nil
}

// extractDOCX reads word/document.xml from the zip container and collects
// paragraph text
func (e *UploadExtractor) extractDOCX(filename string, data []byte) (*models.UploadContent, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &models.ParseError{Source: filename, Err: fmt.Errorf("not a valid docx archive: %w", err)}
	}

	var docFile *zip.File
	for _, f := range reader.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, &models.ParseError{Source: filename, Err: fmt.Errorf("archive has no word/document.xml")}
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, &models.ParseError{Source: filename, Err: err}
	}
	defer rc.Close()

	text, err := docxText(rc)
	if err != nil {
		return nil, &models.ParseError{Source: filename, Err: err}
	}

	return &models.UploadContent{
		Filename: filename,
		Format:   "docx",
		Text:     text,
	}, nil
}

// docxText walks the WordprocessingML token stream collecting run text.
// Paragraph ends become blank lines, tabs and breaks become whitespace.
func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var builder strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed document xml: %w", err)
		}

		switch tok := token.(type) {
		case xml.StartElement:
			switch tok.Name.Local {
			case "t":
				inText = true
			case "tab":
				builder.WriteString("\t")
			case "br":
				builder.WriteString("\n")
			}
		case xml.EndElement:
			switch tok.Name.Local {
			case "t":
				inText = false
			case "p":
				builder.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				builder.Write(tok)
			}
		}
	}

	return strings.TrimSpace(builder.String()), nil
}
