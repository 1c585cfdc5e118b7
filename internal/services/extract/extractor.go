// -----------------------------------------------------------------------
// Text Extractor Service - Extract normalized text from uploaded documents
// Uses pdfcpu for Go-native PDF processing
// -----------------------------------------------------------------------

package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

// MinTextLength is the minimum extracted length callers accept as
// meaningful content.
const MinTextLength = 10

// Extractor implements the TextExtractor interface
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// Compile-time interface assertion
var _ interfaces.TextExtractor = (*Extractor)(nil)

// NewExtractor creates a new text extractor service
func NewExtractor(logger arbor.ILogger) *Extractor {
	// Temp directory for pdfcpu processing
	tempDir := filepath.Join(os.TempDir(), "knowledge-extract")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// Extract converts a raw document byte stream into trimmed text.
func (e *Extractor) Extract(content []byte, fileType models.FileType) (string, error) {
	var text string
	var err error

	switch fileType {
	case models.FileTypePDF:
		text, err = e.extractPDF(content)
	case models.FileTypeDOCX:
		text, err = extractDOCX(content)
	case models.FileTypeDOC:
		text, err = extractDOC(content)
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, fileType)
	}

	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("file_type", string(fileType)).
			Msg("Text extraction failed")
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: document contains no text", models.ErrExtraction)
	}

	e.logger.Debug().
		Str("file_type", string(fileType)).
		Int("text_length", len(text)).
		Msg("Extracted document text")

	return text, nil
}

// extractDOC is a best-effort decode of the legacy binary Word format:
// drop invalid UTF-8, keep printable runes plus newline/carriage-return/tab.
// Inherently lossy; degraded quality for this format is accepted.
func extractDOC(content []byte) (string, error) {
	decoded := strings.ToValidUTF8(string(content), "")

	var builder strings.Builder
	builder.Grow(len(decoded))
	for _, r := range decoded {
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			builder.WriteRune(r)
		}
	}

	return builder.String(), nil
}
