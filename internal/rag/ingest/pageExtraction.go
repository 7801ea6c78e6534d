package ingest

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/dslipak/pdf"
	"github.com/lu4p/cat"
)

var errPageTimeout = errors.New("page extraction timed out")

// pageExtractor returns every page of the file in order, including pages without text.
type pageExtractor func(path string) ([]commonModels.Page, error)

func extractPDF(path string) (pages []commonModels.Page, err error) {
	// the pdf package panics on some malformed cross reference tables
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat pdf: %w", err)
	}

	reader, err := pdf.NewReader(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open pdf: %w", err)
	}

	numPages := reader.NumPage()
	pages = make([]commonModels.Page, 0, numPages)
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, commonModels.Page{Number: i})
			continue
		}

		// an unreadable page is reported as empty, the rest of the file is still useful
		content, err := protectExtract(page)
		if err != nil {
			content = ""
		}
		pages = append(pages, commonModels.Page{Number: i, Content: content})
	}
	return pages, nil
}

// reads a .odt, .docx, .rtf or plaintext file as a single page
func extractDocxTxtRtf(path string) ([]commonModels.Page, error) {
	text, err := cat.File(path)
	if err != nil {
		return nil, fmt.Errorf("failed to extract document: %w", err)
	}
	return []commonModels.Page{{Number: 1, Content: text}}, nil
}

func protectExtract(page pdf.Page) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{err: fmt.Errorf("page extraction panicked: %v", r)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(config.PageExtractTimeout):
		return "", errPageTimeout
	}
}
