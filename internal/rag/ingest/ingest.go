package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/pkg/logger_i"
)

var (
	ErrNoDocuments    = errors.New("please upload at least one PDF file")
	ErrNoReadableText = errors.New("no readable text found in any of the uploaded files")
)

type FileError struct {
	Name string `json:"doc_name"`
	Err  string `json:"error"`
}

type LoadResult struct {
	Text       string
	Documents  []commonModels.Document
	Warnings   []string
	FileErrors []FileError
}

// Loader extracts the text of a batch of uploads. Problems with single pages or files are
// collected in the result; only a batch without any text is an error.
type Loader struct {
	extractors map[commonModels.DocType]pageExtractor
	logger     *logger_i.Logger
}

func NewLoader() *Loader {
	return &Loader{
		extractors: map[commonModels.DocType]pageExtractor{
			commonModels.PDF:  extractPDF,
			commonModels.DOCX: extractDocxTxtRtf,
			commonModels.TXT:  extractDocxTxtRtf,
		},
		logger: logger_i.NewLogger("Document Loader"),
	}
}

func (l *Loader) Load(ctx context.Context, uploads []commonModels.Upload) (LoadResult, error) {
	log := l.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	var result LoadResult
	if len(uploads) == 0 {
		return result, ErrNoDocuments
	}

	var text strings.Builder
	for _, upload := range uploads {
		if err := ctx.Err(); err != nil {
			return LoadResult{}, err
		}

		doc, err := l.loadOne(upload)
		if err != nil {
			log.Error("Error reading document", "doc_name", upload.Name, "error", err)
			result.FileErrors = append(result.FileErrors, FileError{Name: upload.Name, Err: err.Error()})
			continue
		}
		log.Info("Processing document", "doc_name", doc.Name, "type", doc.ContentType, "pages", len(doc.Pages))

		for _, page := range doc.Pages {
			if strings.TrimSpace(page.Content) == "" {
				warning := fmt.Sprintf("No text found on page %d of %s", page.Number, doc.Name)
				log.Warn(warning)
				result.Warnings = append(result.Warnings, warning)
				continue
			}
			if text.Len() > 0 {
				text.WriteString("\n")
			}
			text.WriteString(page.Content)
		}
		result.Documents = append(result.Documents, doc)
	}

	if strings.TrimSpace(text.String()) == "" {
		log.Error("No readable text in batch", "files", len(uploads))
		return result, ErrNoReadableText
	}

	result.Text = text.String()
	log.Info("Extracted text from documents", "characters", len([]rune(result.Text)))
	return result, nil
}

func (l *Loader) loadOne(upload commonModels.Upload) (commonModels.Document, error) {
	name := upload.Name
	if name == "" {
		name = upload.Path
	}
	docType := getDocType(name)
	if docType == commonModels.ERR {
		docType = getDocType(upload.Path)
	}

	extract, ok := l.extractors[docType]
	if !ok {
		return commonModels.Document{}, fmt.Errorf("unsupported file type for %s", name)
	}

	pages, err := extract(upload.Path)
	if err != nil {
		return commonModels.Document{}, err
	}
	return commonModels.Document{Name: name, ContentType: docType, Pages: pages}, nil
}
