// Package chunker splits normalized document text into overlapping
// word-count windows sized for embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"
)

const (
	// DefaultWindowWords is the default chunk size in words.
	DefaultWindowWords = 500

	// DefaultOverlapWords is the default overlap between consecutive chunks.
	DefaultOverlapWords = 50
)

// Split produces ordered windows of windowWords whitespace-delimited words,
// advancing windowWords-overlapWords each step. Each window is rejoined with
// single spaces. Empty input yields no chunks and no error. A non-positive
// stride is a caller configuration error, rejected rather than looping.
func Split(text string, windowWords, overlapWords int) ([]string, error) {
	if windowWords <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowWords)
	}
	if overlapWords < 0 {
		return nil, fmt.Errorf("overlap must not be negative, got %d", overlapWords)
	}
	if overlapWords >= windowWords {
		return nil, fmt.Errorf("overlap (%d) must be less than window size (%d)", overlapWords, windowWords)
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, nil
	}

	stride := windowWords - overlapWords
	chunks := make([]string, 0, (len(words)+stride-1)/stride)
	for i := 0; i < len(words); i += stride {
		end := i + windowWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}

	return chunks, nil
}
