package models

import "errors"

// Upload validation errors are user-correctable and reported with detail.
// Infrastructure errors are logged server-side and surfaced opaquely.
var (
	// ErrUnsupportedFormat means the filename extension is not pdf, docx or doc.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtraction means the byte stream could not be parsed as the declared format.
	ErrExtraction = errors.New("text extraction failed")

	// ErrEmptyDocument means the extracted or chunked text is below minimum content thresholds.
	ErrEmptyDocument = errors.New("no meaningful text in document")

	// ErrEmbedding means the embedding provider failed. No vectors or metadata are written.
	ErrEmbedding = errors.New("embedding generation failed")

	// ErrIndexWrite means the vector upsert failed. The metadata commit must not proceed.
	ErrIndexWrite = errors.New("vector index write failed")

	// ErrGeneration means the LLM call failed. No chat turns are persisted.
	ErrGeneration = errors.New("response generation failed")
)
