package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/luminahr/knowledge/internal/models"
)

// extractPDF extracts text from PDF bytes, page by page in order. A page
// with no extractable text contributes nothing; an unparseable stream
// fails with ErrExtraction. pdfcpu works on files, so the bytes pass
// through a temp file.
func (e *Extractor) extractPDF(content []byte) (string, error) {
	tempFile := filepath.Join(e.tempDir, fmt.Sprintf("extract_%s.pdf", uuid.New().String()))
	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	defer os.Remove(tempFile)

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("%w: unable to parse PDF: %v", models.ErrExtraction, err)
	}
	pageCount := pdfCtx.PageCount

	outDir := filepath.Join(e.tempDir, fmt.Sprintf("pages_%s", uuid.New().String()))
	os.MkdirAll(outDir, 0755)
	defer os.RemoveAll(outDir)

	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("%w: unable to extract PDF content: %v", models.ErrExtraction, err)
	}

	// Extracted content files are named <basename>_Content_page_N.txt;
	// collect them by page number.
	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		pageNum, ok := contentPageNumber(file.Name())
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outDir, file.Name()))
		if err != nil {
			continue
		}
		pageTexts[pageNum] = string(data)
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= pageCount; pageNum++ {
		text, ok := pageTexts[pageNum]
		if !ok {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	return builder.String(), nil
}

// contentPageNumber parses the page number out of a pdfcpu content file
// name of the form <basename>_Content_page_N.txt.
func contentPageNumber(name string) (int, bool) {
	const marker = "_Content_page_"
	idx := strings.LastIndex(name, marker)
	if idx < 0 {
		return 0, false
	}
	rest := strings.TrimSuffix(name[idx+len(marker):], filepath.Ext(name))
	var pageNum int
	if _, err := fmt.Sscanf(rest, "%d", &pageNum); err != nil {
		return 0, false
	}
	return pageNum, true
}
