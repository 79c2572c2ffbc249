// Package extract converts stored document files into plain text.
package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"docstudy/pkg/domain"
)

var (
	// ErrUnsupportedType is returned for file types outside PDF/DOCX/TXT.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNotFound is returned when the file is missing from storage.
	ErrNotFound = errors.New("file not found")
	// ErrExtraction is returned when a supported file yields no readable text.
	ErrExtraction = errors.New("text extraction failed")
)

// Extractor converts a stored file plus its type tag into plain text.
type Extractor interface {
	Text(path, fileType string) (string, error)
}

// FileExtractor extracts text from files on the local filesystem.
type FileExtractor struct{}

// Text dispatches on the MIME type recorded at upload time.
func (FileExtractor) Text(path, fileType string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	switch fileType {
	case domain.FileTypePDF:
		return extractPDF(path)
	case domain.FileTypeDOCX:
		return extractDOCX(path)
	case domain.FileTypeText:
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("%w: read file: %v", ErrExtraction, err)
		}
		return normalizeText(string(data)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, fileType)
	}
}

func extractPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", ErrExtraction, err)
	}
	defer file.Close()
	var b strings.Builder
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	text := normalizeText(b.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text in pdf", ErrExtraction)
	}
	return text, nil
}

// extractDOCX pulls run text out of word/document.xml. Paragraph boundaries
// become newlines; all other markup is dropped.
func extractDOCX(path string) (string, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("%w: open docx: %v", ErrExtraction, err)
	}
	defer reader.Close()
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: read docx: %v", ErrExtraction, err)
		}
		defer rc.Close()
		text, err := wordDocumentText(rc)
		if err != nil {
			return "", err
		}
		return text, nil
	}
	return "", fmt.Errorf("%w: docx has no word/document.xml", ErrExtraction)
}

func wordDocumentText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var b strings.Builder
	inRunText := false
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inRunText = true
			case "tab":
				b.WriteString("\t")
			case "br":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inRunText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inRunText {
				b.Write(el)
			}
		}
	}
	return normalizeText(b.String()), nil
}

// normalizeText strips NUL bytes and invalid UTF-8 and trims surrounding
// whitespace, leaving internal layout intact.
func normalizeText(text string) string {
	text = strings.ReplaceAll(text, "\x00", " ")
	text = strings.ToValidUTF8(text, "")
	return strings.TrimSpace(text)
}
