package models

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// FileType is the detected format of an uploaded document
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeDOC  FileType = "doc"
)

// DetectFileType maps a filename extension to a supported FileType.
// Returns ErrUnsupportedFormat for anything else.
func DetectFileType(filename string) (FileType, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FileTypePDF, nil
	case ".docx":
		return FileTypeDOCX, nil
	case ".doc":
		return FileTypeDOC, nil
	default:
		return "", fmt.Errorf("%w: only PDF, DOC and DOCX files are supported", ErrUnsupportedFormat)
	}
}

// KnowledgeDocument is the metadata record for an ingested document.
// A record exists only after all of the document's chunk vectors are
// durably written to the vector index. Unique per (CompanyID, ContentHash).
type KnowledgeDocument struct {
	ID          string    `json:"id" badgerhold:"key"`
	CompanyID   string    `json:"company_id" badgerhold:"index"`
	Filename    string    `json:"filename"`
	FileType    FileType  `json:"file_type"`
	FileSize    int       `json:"file_size"`
	ContentHash string    `json:"content_hash"`
	ChunkCount  int       `json:"chunk_count"`
	UploadedBy  string    `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// ContentHash computes the content fingerprint for raw document bytes.
// MD5 is used as a fingerprint only, not for security; any
// collision-resistant fixed-length digest would do.
func ContentHash(content []byte) string {
	sum := md5.Sum(content)
	return hex.EncodeToString(sum[:])
}

// NewKnowledgeDocument builds a metadata record for freshly ingested bytes.
// The content hash is computed here once and never re-derived.
func NewKnowledgeDocument(id, companyID, filename string, fileType FileType, content []byte, chunkCount int, uploadedBy string) *KnowledgeDocument {
	return &KnowledgeDocument{
		ID:          id,
		CompanyID:   companyID,
		Filename:    filename,
		FileType:    fileType,
		FileSize:    len(content),
		ContentHash: ContentHash(content),
		ChunkCount:  chunkCount,
		UploadedBy:  uploadedBy,
		CreatedAt:   time.Now().UTC(),
	}
}
