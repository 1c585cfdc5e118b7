package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/luminahr/knowledge/internal/common"
	"github.com/luminahr/knowledge/internal/models"
)

func newTestService(url string, dimension int) *Service {
	return NewService(&common.QdrantConfig{
		URL:              url,
		CollectionPrefix: "hr_knowledge_",
	}, dimension, arbor.NewLogger())
}

func TestCollectionName(t *testing.T) {
	svc := newTestService("http://localhost:6333", 384)

	tests := []struct {
		companyID string
		want      string
	}{
		{"acme", "hr_knowledge_acme"},
		{"a1b2-c3d4-e5f6", "hr_knowledge_a1b2_c3d4_e5f6"},
		{"already_underscored", "hr_knowledge_already_underscored"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.CollectionName(tt.companyID))
	}
}

// fakeQdrant records requests and serves canned collection state.
type fakeQdrant struct {
	mux *http.ServeMux

	collectionDim  int  // 0 means collection absent
	deleteCalled   bool
	createCalled   bool
	createdDim     int
	lastUpsertWait string
	lastBody       map[string]any
}

func newFakeQdrant(collection string, dim int) *fakeQdrant {
	f := &fakeQdrant{mux: http.NewServeMux(), collectionDim: dim}
	path := "/collections/" + collection

	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if f.collectionDim == 0 {
				http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
				return
			}
			fmt.Fprintf(w, `{"result":{"config":{"params":{"vectors":{"size":%d}}}}}`, f.collectionDim)
		case http.MethodPut:
			f.createCalled = true
			var body struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.createdDim = body.Vectors.Size
			f.collectionDim = body.Vectors.Size
			w.Write([]byte(`{"result":true}`))
		case http.MethodDelete:
			f.deleteCalled = true
			f.collectionDim = 0
			w.Write([]byte(`{"result":true}`))
		}
	})

	f.mux.HandleFunc(path+"/points", func(w http.ResponseWriter, r *http.Request) {
		f.lastUpsertWait = r.URL.Query().Get("wait")
		json.NewDecoder(r.Body).Decode(&f.lastBody)
		w.Write([]byte(`{"result":{"status":"completed"}}`))
	})

	return f
}

func TestEnsureCollection(t *testing.T) {
	t.Run("Creates when absent", func(t *testing.T) {
		fake := newFakeQdrant("hr_knowledge_acme", 0)
		server := httptest.NewServer(fake.mux)
		defer server.Close()

		svc := newTestService(server.URL, 384)
		require.NoError(t, svc.EnsureCollection(context.Background(), "acme"))
		assert.True(t, fake.createCalled)
		assert.Equal(t, 384, fake.createdDim)
	})

	t.Run("No-op when dimension matches", func(t *testing.T) {
		fake := newFakeQdrant("hr_knowledge_acme", 384)
		server := httptest.NewServer(fake.mux)
		defer server.Close()

		svc := newTestService(server.URL, 384)
		require.NoError(t, svc.EnsureCollection(context.Background(), "acme"))
		assert.False(t, fake.createCalled)
		assert.False(t, fake.deleteCalled)
	})

	t.Run("Recreates on dimension mismatch", func(t *testing.T) {
		fake := newFakeQdrant("hr_knowledge_acme", 768)
		server := httptest.NewServer(fake.mux)
		defer server.Close()

		svc := newTestService(server.URL, 384)
		require.NoError(t, svc.EnsureCollection(context.Background(), "acme"))
		assert.True(t, fake.deleteCalled)
		assert.True(t, fake.createCalled)
		assert.Equal(t, 384, fake.createdDim)
	})
}

func TestUpsert_WaitsForDurability(t *testing.T) {
	fake := newFakeQdrant("hr_knowledge_acme", 384)
	server := httptest.NewServer(fake.mux)
	defer server.Close()

	svc := newTestService(server.URL, 384)
	points := []models.VectorPoint{
		{
			ID:     "11111111-1111-1111-1111-111111111111",
			Vector: []float32{0.1, 0.2},
			Payload: models.PointPayload{
				DocumentID:   "doc_1",
				DocumentName: "policy.pdf",
				ChunkIndex:   0,
				Text:         "chunk text",
				CompanyID:    "acme",
			},
		},
	}

	require.NoError(t, svc.Upsert(context.Background(), "acme", points))
	assert.Equal(t, "true", fake.lastUpsertWait)

	sent, ok := fake.lastBody["points"].([]any)
	require.True(t, ok)
	require.Len(t, sent, 1)
}

func TestUpsert_FailureWrapsIndexWrite(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status":{"error":"wal full"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := newTestService(server.URL, 384)
	err := svc.Upsert(context.Background(), "acme", []models.VectorPoint{{ID: "p1"}})
	assert.ErrorIs(t, err, models.ErrIndexWrite)
}

func TestSearch_ParsesScoredPoints(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/hr_knowledge_acme/points/search", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result":[
			{"score":0.91,"payload":{"document_id":"doc_1","document_name":"leave.pdf","chunk_index":0,"text":"first","company_id":"acme"}},
			{"score":0.42,"payload":{"document_id":"doc_2","document_name":"travel.docx","chunk_index":3,"text":"second","company_id":"acme"}}
		]}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL, 384)
	hits, err := svc.Search(context.Background(), "acme", []float32{0.5, 0.5}, 5, 0.3)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.InDelta(t, 0.91, float64(hits[0].Score), 1e-6)
	assert.Equal(t, "doc_1", hits[0].Payload.DocumentID)
	assert.Equal(t, "leave.pdf", hits[0].Payload.DocumentName)
	assert.Equal(t, "second", hits[1].Payload.Text)

	assert.EqualValues(t, 5, gotBody["limit"])
	assert.InDelta(t, 0.3, gotBody["score_threshold"].(float64), 1e-6)
	assert.Equal(t, true, gotBody["with_payload"])
}

func TestDeleteByDocument_FiltersByID(t *testing.T) {
	var gotBody map[string]any
	var gotWait string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/hr_knowledge_acme/points/delete", r.URL.Path)
		gotWait = r.URL.Query().Get("wait")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"result":{"status":"completed"}}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL, 384)
	require.NoError(t, svc.DeleteByDocument(context.Background(), "acme", "doc_42"))

	assert.Equal(t, "true", gotWait)
	filter := gotBody["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	cond := must[0].(map[string]any)
	assert.Equal(t, "document_id", cond["key"])
	assert.Equal(t, "doc_42", cond["match"].(map[string]any)["value"])
}

func TestDocumentIDs_ScrollsAllPages(t *testing.T) {
	page := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/collections/hr_knowledge_acme/points/scroll", r.URL.Path)
		page++
		if page == 1 {
			w.Write([]byte(`{"result":{"points":[
				{"payload":{"document_id":"doc_1"}},
				{"payload":{"document_id":"doc_1"}},
				{"payload":{"document_id":"doc_2"}}
			],"next_page_offset":"cursor-1"}}`))
			return
		}
		w.Write([]byte(`{"result":{"points":[
			{"payload":{"document_id":"doc_3"}}
		],"next_page_offset":null}}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL, 384)
	ids, err := svc.DocumentIDs(context.Background(), "acme")
	require.NoError(t, err)

	assert.Equal(t, []string{"doc_1", "doc_2", "doc_3"}, ids)
	assert.Equal(t, 2, page)
}

func TestTenants_ListsPrefixedCollections(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/collections", r.URL.Path)
		w.Write([]byte(`{"result":{"collections":[
			{"name":"hr_knowledge_globex"},
			{"name":"unrelated_collection"},
			{"name":"hr_knowledge_acme"},
			{"name":"hr_knowledge_a1b2_c3d4"}
		]}}`))
	}))
	defer server.Close()

	svc := newTestService(server.URL, 384)
	tenants, err := svc.Tenants(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"a1b2_c3d4", "acme", "globex"}, tenants)
}
