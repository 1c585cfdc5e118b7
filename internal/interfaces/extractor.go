package interfaces

import "github.com/luminahr/knowledge/internal/models"

// TextExtractor converts a raw document byte stream into normalized text.
// Implementations are format-specific and side-effect-free.
type TextExtractor interface {
	// Extract parses content as the declared format and returns the
	// trimmed text. Fails with models.ErrExtraction when the bytes cannot
	// be parsed or yield no text at all.
	Extract(content []byte, fileType models.FileType) (string, error)
}
