package models

// PointPayload is the payload stored alongside each vector in the index.
// One point corresponds to one chunk of one document.
type PointPayload struct {
	DocumentID   string `json:"document_id"`
	DocumentName string `json:"document_name"`
	ChunkIndex   int    `json:"chunk_index"`
	Text         string `json:"text"`
	CompanyID    string `json:"company_id"`
}

// VectorPoint is a single (vector, payload) entry for upsert.
type VectorPoint struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload PointPayload `json:"payload"`
}

// ScoredPoint is a search hit with its cosine similarity score.
type ScoredPoint struct {
	Score   float32      `json:"score"`
	Payload PointPayload `json:"payload"`
}
