package qdrant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
	"github.com/acrobyte007/Sustainability/internal/infrastructure/resilience"
)

func records() []domain.VectorRecord {
	return []domain.VectorRecord{
		{Chunk: domain.Chunk{DocumentID: "doc-1", Page: 1, ChunkIndex: 1, Text: "a"}, Vector: []float32{0.1, 0.2}},
		{Chunk: domain.Chunk{DocumentID: "doc-1", Page: 2, ChunkIndex: 1, Text: "b"}, Vector: []float32{0.3, 0.4}},
	}
}

func TestUpsertEnsuresCollectionOncePerVectorSize(t *testing.T) {
	var ensureCalls int32
	var gotPoints []point
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/esg":
			atomic.AddInt32(&ensureCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/esg/points":
			var body struct {
				Points []point `json:"points"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			gotPoints = body.Points
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "esg")
	for i := 0; i < 2; i++ {
		require.NoError(t, client.Upsert(context.Background(), "user-1", records()), "upsert #%d", i)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&ensureCalls))
	require.Len(t, gotPoints, 2)
	assert.Equal(t, PointID("user-1", "doc-1#p1c1"), gotPoints[0].ID)
	assert.Equal(t, "doc-1#p2c1", gotPoints[1].Payload["chunk_id"])
	assert.Equal(t, "user-1", gotPoints[1].Payload["namespace"])
}

func TestEnsureCollectionToleratesConflict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/collections/esg" {
			http.Error(w, "exists", http.StatusConflict)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	assert.NoError(t, New(server.URL, "esg").Upsert(context.Background(), "u", records()))
}

func TestEnsureCollectionIncludesResponseBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer server.Close()

	err := New(server.URL, "esg").Upsert(context.Background(), "u", records())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestQueryFiltersAndConvertsSimilarityToDistance(t *testing.T) {
	var filter string
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/esg/points/search" {
			http.NotFound(w, r)
			return
		}
		gotKey = r.Header.Get("api-key")
		raw, _ := io.ReadAll(r.Body)
		filter = string(raw)
		_, _ = w.Write([]byte(`{"result":[
			{"id":"x","score":0.9,"payload":{"chunk_id":"doc-1#p3c2","document_id":"doc-1","page":3,"chunk_index":2,"chunk_text":"scope 1"}},
			{"id":"y","score":0.25,"payload":{"document_id":"doc-1","page":4,"chunk_index":1,"chunk_text":"other"}}
		]}`))
	}))
	defer server.Close()

	client := New(server.URL, "esg", WithAPIKey("secret"))
	matches, err := client.Query(context.Background(), "user-1", []float32{1, 0}, 30, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "secret", gotKey)
	assert.Contains(t, filter, `"namespace"`)
	assert.Contains(t, filter, `"doc-1"`)
	assert.Contains(t, filter, `"limit":30`)

	require.Len(t, matches, 2)
	m := matches[0]
	assert.Equal(t, "doc-1#p3c2", m.ID)
	assert.Equal(t, 3, m.Page)
	assert.Equal(t, 2, m.ChunkIndex)
	assert.Equal(t, "scope 1", m.Text)
	assert.InDelta(t, 0.1, m.Score, 1e-4)
	assert.Equal(t, "doc-1#p4c1", matches[1].ID, "id rebuilt from payload")
}

func TestQueryRetriesUnavailable(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
	}, nil)
	client := New(server.URL, "esg", WithExecutor(exec))
	_, err := client.Query(context.Background(), "u", []float32{1}, 5, "d")
	require.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestDeleteDocumentSendsFilter(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/esg/points/delete" || r.URL.Query().Get("wait") != "true" {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	require.NoError(t, New(server.URL, "esg").DeleteDocument(context.Background(), "user-1", "doc-9"))
	assert.Contains(t, body, `"doc-9"`)
	assert.Contains(t, body, `"user-1"`)
}
