package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

// maxUploadBytes caps document uploads at 20 MB.
const maxUploadBytes = 20 << 20

// DocumentHandler handles document upload, listing and deletion
type DocumentHandler struct {
	ingestService interfaces.IngestService
	logger        arbor.ILogger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(ingestService interfaces.IngestService, logger arbor.ILogger) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		logger:        logger,
	}
}

// UploadHandler handles POST /api/knowledge/upload requests with a
// multipart "file" field.
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	companyID := RequireTenant(w, r)
	if companyID == "" {
		return
	}
	userID := r.Header.Get(HeaderUserID)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "File field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read uploaded file")
		WriteError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result, err := h.ingestService.Upload(r.Context(), companyID, userID, header.Filename, content)
	if err != nil {
		h.writeUploadError(w, header.Filename, err)
		return
	}

	status := http.StatusCreated
	if result.Duplicate {
		status = http.StatusOK
	}
	WriteJSON(w, status, result)
}

// writeUploadError maps pipeline errors to HTTP statuses. Validation
// failures carry detail; infrastructure failures are opaque.
func (h *DocumentHandler) writeUploadError(w http.ResponseWriter, filename string, err error) {
	switch {
	case errors.Is(err, models.ErrUnsupportedFormat),
		errors.Is(err, models.ErrExtraction),
		errors.Is(err, models.ErrEmptyDocument):
		h.logger.Warn().Err(err).Str("filename", filename).Msg("Upload rejected")
		WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrEmbedding), errors.Is(err, models.ErrIndexWrite):
		h.logger.Error().Err(err).Str("filename", filename).Msg("Upload pipeline failed")
		WriteError(w, http.StatusServiceUnavailable, "Document processing is temporarily unavailable")
	default:
		h.logger.Error().Err(err).Str("filename", filename).Msg("Upload failed")
		WriteError(w, http.StatusInternalServerError, "Failed to process document")
	}
}

// ListHandler handles GET /api/knowledge/documents requests
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	companyID := RequireTenant(w, r)
	if companyID == "" {
		return
	}

	docs, err := h.ingestService.List(r.Context(), companyID)
	if err != nil {
		h.logger.Error().Err(err).Str("company_id", companyID).Msg("Failed to list documents")
		WriteError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []*models.KnowledgeDocument{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

// DeleteHandler handles DELETE /api/knowledge/documents/{id} requests
func (h *DocumentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodDelete) {
		return
	}

	companyID := RequireTenant(w, r)
	if companyID == "" {
		return
	}

	documentID := strings.TrimPrefix(r.URL.Path, "/api/knowledge/documents/")
	if documentID == "" || strings.Contains(documentID, "/") {
		WriteError(w, http.StatusBadRequest, "Document ID is required")
		return
	}

	result, err := h.ingestService.Delete(r.Context(), companyID, documentID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			WriteError(w, http.StatusNotFound, "Document not found")
			return
		}
		h.logger.Error().Err(err).Str("document_id", documentID).Msg("Failed to delete document")
		WriteError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
