package common

import (
	"github.com/google/uuid"
)

// NewDocumentID generates a unique document ID with the "doc_" prefix
// Format: doc_<uuid>
func NewDocumentID() string {
	return "doc_" + uuid.New().String()
}

// NewMessageID generates a unique chat message ID with the "msg_" prefix
func NewMessageID() string {
	return "msg_" + uuid.New().String()
}

// NewSessionID generates a fresh conversation session ID
func NewSessionID() string {
	return uuid.New().String()
}

// NewPointID generates a vector point ID. Qdrant requires plain UUIDs.
func NewPointID() string {
	return uuid.New().String()
}
