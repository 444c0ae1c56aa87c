package similarity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func ollamaTestServer(t *testing.T, vectors map[string][]float32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		vec, ok := vectors[req.Prompt]
		if !ok {
			http.Error(w, "unknown prompt", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: vec})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaEmbed(t *testing.T) {
	srv := ollamaTestServer(t, map[string][]float32{
		"capital": {1, 0, 0},
	})

	engine, err := NewOllamaEngine(srv.URL, "embeddinggemma", time.Second)
	if err != nil {
		t.Fatalf("NewOllamaEngine: %v", err)
	}

	vec, err := engine.Embed(context.Background(), "capital")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 1 {
		t.Errorf("unexpected vector: %v", vec)
	}
}

func TestOllamaEmbedBatch(t *testing.T) {
	srv := ollamaTestServer(t, map[string][]float32{
		"capital": {1, 0},
		"country": {0, 1},
	})

	engine, err := NewOllamaEngine(srv.URL, "", time.Second)
	if err != nil {
		t.Fatalf("NewOllamaEngine: %v", err)
	}

	vecs, err := engine.EmbedBatch(context.Background(), []string{"capital", "country"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vecs) != 2 || vecs[0][0] != 1 || vecs[1][1] != 1 {
		t.Errorf("unexpected vectors: %v", vecs)
	}
}

func TestOllamaEmbedServerError(t *testing.T) {
	srv := ollamaTestServer(t, nil)

	engine, err := NewOllamaEngine(srv.URL, "", time.Second)
	if err != nil {
		t.Fatalf("NewOllamaEngine: %v", err)
	}
	if _, err := engine.Embed(context.Background(), "capital"); err == nil {
		t.Fatal("expected an error for a failing server")
	}
}

func TestOllamaTimeoutFromConfig(t *testing.T) {
	engine, err := NewOllamaEngine("", "", 5*time.Second)
	if err != nil {
		t.Fatalf("NewOllamaEngine: %v", err)
	}
	if engine.client.Timeout != 5*time.Second {
		t.Errorf("client timeout = %v, want 5s", engine.client.Timeout)
	}

	// Non-positive timeouts fall back rather than disabling the limit.
	engine, err = NewOllamaEngine("", "", 0)
	if err != nil {
		t.Fatalf("NewOllamaEngine: %v", err)
	}
	if engine.client.Timeout != 30*time.Second {
		t.Errorf("fallback timeout = %v, want 30s", engine.client.Timeout)
	}
}
