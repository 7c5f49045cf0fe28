package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"veritas-data-pipeline/internal/pkg/apperror"
)

func TestOllamaProviderEmbedText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req ollamaEmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" {
			t.Errorf("model = %s, want nomic-embed-text", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{3, 4}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text", 2)

	vec, err := p.EmbedText(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 {
		t.Fatalf("vector length = %d, want 2", len(vec))
	}

	// Vectors come back unit-normalized.
	norm := math.Sqrt(float64(vec[0]*vec[0] + vec[1]*vec[1]))
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("vector norm = %v, want 1.0", norm)
	}
}

func TestOllamaProviderServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing-model", 768)

	_, err := p.EmbedText(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !apperror.IsKind(err, apperror.KindEmbedding) {
		t.Errorf("error kind = %v, want KindEmbedding", apperror.KindOf(err))
	}
}

func TestOllamaProviderEmbedBatchPreservesOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ollamaEmbeddingRequest
		json.NewDecoder(r.Body).Decode(&req)
		// Encode the input length so ordering survives normalization: the
		// first component grows with len(prompt) even on the unit sphere.
		json.NewEncoder(w).Encode(ollamaEmbeddingResponse{Embedding: []float64{float64(len(req.Prompt)), 1}})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nomic-embed-text", 2)

	vectors, err := p.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("vector count = %d, want 3", len(vectors))
	}
	if !(vectors[0][0] < vectors[1][0] && vectors[1][0] < vectors[2][0]) {
		t.Errorf("batch order not preserved: %v", vectors)
	}
}

func TestOpenAIProviderEmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		var req openAIEmbeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		// Answer out of order; the provider must reorder by index.
		resp := openAIEmbeddingResponse{}
		resp.Data = []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}{
			{Index: 1, Embedding: []float32{2, 0}},
			{Index: 0, Embedding: []float32{1, 0}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", "text-embedding-ada-002", 2)
	p.BaseURL = srv.URL

	vectors, err := p.EmbedBatch(context.Background(), []string{"first", "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vectors[0][0] != 1 || vectors[1][0] != 2 {
		t.Errorf("batch order not preserved: %v", vectors)
	}
}

func TestOpenAIProviderCountMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIEmbeddingResponse{})
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", "", 1536)
	p.BaseURL = srv.URL

	_, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	if err == nil {
		t.Fatal("expected error for count mismatch, got nil")
	}
	if !apperror.IsKind(err, apperror.KindEmbedding) {
		t.Errorf("error kind = %v, want KindEmbedding", apperror.KindOf(err))
	}
}
