package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/interfaces"
	"github.com/luminahr/knowledge/internal/models"
)

type stubIngest struct {
	uploadResult *interfaces.UploadResult
	uploadErr    error
	deleteResult *interfaces.DeleteResult
	deleteErr    error
	docs         []*models.KnowledgeDocument

	gotCompanyID string
	gotUser      string
	gotFilename  string
	gotContent   []byte
}

func (s *stubIngest) Upload(ctx context.Context, companyID, uploadedBy, filename string, content []byte) (*interfaces.UploadResult, error) {
	s.gotCompanyID = companyID
	s.gotUser = uploadedBy
	s.gotFilename = filename
	s.gotContent = content
	return s.uploadResult, s.uploadErr
}

func (s *stubIngest) Delete(ctx context.Context, companyID, documentID string) (*interfaces.DeleteResult, error) {
	s.gotCompanyID = companyID
	return s.deleteResult, s.deleteErr
}

func (s *stubIngest) List(ctx context.Context, companyID string) ([]*models.KnowledgeDocument, error) {
	s.gotCompanyID = companyID
	return s.docs, nil
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	t.Run("Successful upload", func(t *testing.T) {
		ingest := &stubIngest{uploadResult: &interfaces.UploadResult{
			DocumentID:    "doc_1",
			Filename:      "policy.pdf",
			ChunksCreated: 4,
			StepsCompleted: []string{
				"file_received", "duplicate_check", "text_extracted",
				"chunks_created", "embeddings_generated", "vectors_stored", "metadata_saved",
			},
		}}
		h := NewDocumentHandler(ingest, arbor.NewLogger())

		body, contentType := multipartUpload(t, "policy.pdf", []byte("pdf bytes"))
		req := httptest.NewRequest(http.MethodPost, "/api/knowledge/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(HeaderCompanyID, "acme")
		req.Header.Set(HeaderUserID, "hr-admin")

		rec := httptest.NewRecorder()
		h.UploadHandler(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "acme", ingest.gotCompanyID)
		assert.Equal(t, "hr-admin", ingest.gotUser)
		assert.Equal(t, "policy.pdf", ingest.gotFilename)
		assert.Equal(t, []byte("pdf bytes"), ingest.gotContent)

		var result interfaces.UploadResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "doc_1", result.DocumentID)
		assert.Len(t, result.StepsCompleted, 7)
	})

	t.Run("Duplicate returns 200", func(t *testing.T) {
		ingest := &stubIngest{uploadResult: &interfaces.UploadResult{
			DocumentID: "doc_1", Duplicate: true,
			StepsCompleted: []string{"file_received", "duplicate_check"},
		}}
		h := NewDocumentHandler(ingest, arbor.NewLogger())

		body, contentType := multipartUpload(t, "policy.pdf", []byte("pdf bytes"))
		req := httptest.NewRequest(http.MethodPost, "/api/knowledge/upload", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set(HeaderCompanyID, "acme")

		rec := httptest.NewRecorder()
		h.UploadHandler(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Missing tenant header", func(t *testing.T) {
		h := NewDocumentHandler(&stubIngest{}, arbor.NewLogger())

		body, contentType := multipartUpload(t, "policy.pdf", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/api/knowledge/upload", body)
		req.Header.Set("Content-Type", contentType)

		rec := httptest.NewRecorder()
		h.UploadHandler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Validation errors map to 400", func(t *testing.T) {
		for _, sentinel := range []error{models.ErrUnsupportedFormat, models.ErrExtraction, models.ErrEmptyDocument} {
			ingest := &stubIngest{uploadErr: fmt.Errorf("%w: detail", sentinel)}
			h := NewDocumentHandler(ingest, arbor.NewLogger())

			body, contentType := multipartUpload(t, "bad.xyz", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/api/knowledge/upload", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set(HeaderCompanyID, "acme")

			rec := httptest.NewRecorder()
			h.UploadHandler(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code, "sentinel %v", sentinel)
		}
	})

	t.Run("Infrastructure errors map to 503", func(t *testing.T) {
		for _, sentinel := range []error{models.ErrEmbedding, models.ErrIndexWrite} {
			ingest := &stubIngest{uploadErr: fmt.Errorf("%w: backend down", sentinel)}
			h := NewDocumentHandler(ingest, arbor.NewLogger())

			body, contentType := multipartUpload(t, "policy.pdf", []byte("x"))
			req := httptest.NewRequest(http.MethodPost, "/api/knowledge/upload", body)
			req.Header.Set("Content-Type", contentType)
			req.Header.Set(HeaderCompanyID, "acme")

			rec := httptest.NewRecorder()
			h.UploadHandler(rec, req)

			assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "sentinel %v", sentinel)
		}
	})

	t.Run("Wrong method", func(t *testing.T) {
		h := NewDocumentHandler(&stubIngest{}, arbor.NewLogger())
		req := httptest.NewRequest(http.MethodGet, "/api/knowledge/upload", nil)
		rec := httptest.NewRecorder()
		h.UploadHandler(rec, req)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestListHandler(t *testing.T) {
	ingest := &stubIngest{docs: []*models.KnowledgeDocument{
		{ID: "doc_1", CompanyID: "acme", Filename: "a.pdf"},
		{ID: "doc_2", CompanyID: "acme", Filename: "b.docx"},
	}}
	h := NewDocumentHandler(ingest, arbor.NewLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/knowledge/documents", nil)
	req.Header.Set(HeaderCompanyID, "acme")
	rec := httptest.NewRecorder()
	h.ListHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Documents []models.KnowledgeDocument `json:"documents"`
		Count     int                        `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "doc_1", resp.Documents[0].ID)
}

func TestDeleteHandler(t *testing.T) {
	t.Run("Successful delete", func(t *testing.T) {
		ingest := &stubIngest{deleteResult: &interfaces.DeleteResult{VectorsDeleted: true, MetadataDeleted: true}}
		h := NewDocumentHandler(ingest, arbor.NewLogger())

		req := httptest.NewRequest(http.MethodDelete, "/api/knowledge/documents/doc_1", nil)
		req.Header.Set(HeaderCompanyID, "acme")
		rec := httptest.NewRecorder()
		h.DeleteHandler(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var result interfaces.DeleteResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.VectorsDeleted)
		assert.True(t, result.MetadataDeleted)
	})

	t.Run("Unknown document", func(t *testing.T) {
		ingest := &stubIngest{deleteErr: fmt.Errorf("document not found: doc_x")}
		h := NewDocumentHandler(ingest, arbor.NewLogger())

		req := httptest.NewRequest(http.MethodDelete, "/api/knowledge/documents/doc_x", nil)
		req.Header.Set(HeaderCompanyID, "acme")
		rec := httptest.NewRecorder()
		h.DeleteHandler(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Missing id", func(t *testing.T) {
		h := NewDocumentHandler(&stubIngest{}, arbor.NewLogger())
		req := httptest.NewRequest(http.MethodDelete, "/api/knowledge/documents/", nil)
		req.Header.Set(HeaderCompanyID, "acme")
		rec := httptest.NewRecorder()
		h.DeleteHandler(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
