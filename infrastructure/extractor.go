package infrastructure

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/sirupsen/logrus"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"

	"resume-screener/domain"
)

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTag          = regexp.MustCompile(`<[^>]+>`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

// DocumentExtractor turns .txt, .pdf and .docx uploads into plain text.
type DocumentExtractor struct {
	log *logrus.Logger
}

// NewDocumentExtractor registers the unidoc key when one is configured; without
// it the unipdf fallback may refuse to run and only the primary pdf reader is used.
func NewDocumentExtractor(unidocKey string, log *logrus.Logger) (*DocumentExtractor, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if unidocKey != "" {
		if err := license.SetMeteredKey(unidocKey); err != nil {
			return nil, fmt.Errorf("set unidoc license: %w", err)
		}
	}
	return &DocumentExtractor{log: log}, nil
}

func (e *DocumentExtractor) Extract(filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".txt", ".md":
		text = string(data)
	case ".pdf":
		text, err = e.extractPDF(data)
	case ".docx":
		text, err = extractDocx(data)
	default:
		return "", domain.Invalid("file", fmt.Sprintf("unsupported file type %q", ext))
	}
	if err != nil {
		return "", domain.Invalid("file", fmt.Sprintf("could not read %s: %v", filename, err))
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.Invalid("file", "no text could be extracted from the document")
	}
	return text, nil
}

func (e *DocumentExtractor) extractPDF(data []byte) (string, error) {
	text, err := readPDFPlain(data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	e.log.WithError(err).Debug("plain pdf reader found no text, trying unipdf")

	text, fallbackErr := readPDFUnidoc(data)
	if fallbackErr != nil {
		return "", errors.Join(err, fallbackErr)
	}
	return text, nil
}

func readPDFPlain(data []byte) (text string, err error) {
	// The reader panics on some malformed xref tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func readPDFUnidoc(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			continue
		}
		pageText, err := ex.ExtractText()
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", errors.New("no text could be extracted from any page of the PDF")
	}
	return sb.String(), nil
}

func extractDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return docxPlainText(doc.Editable().GetContent()), nil
}

// docxPlainText reduces document.xml to text, one line per paragraph.
func docxPlainText(xml string) string {
	text := docxParagraphEnd.ReplaceAllString(xml, "\n")
	text = docxTag.ReplaceAllString(text, "")
	text = html.UnescapeString(text)
	return strings.TrimSpace(blankLines.ReplaceAllString(text, "\n\n"))
}
