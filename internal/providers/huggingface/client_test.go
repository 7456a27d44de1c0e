package huggingface

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Options{})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestTextGeneration(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq generationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode([]generationResponse{{GeneratedText: "an answer"}})
	}))
	defer srv.Close()

	c, err := NewClient(Options{APIKey: "key", BaseURL: srv.URL, Model: "Qwen/Qwen-7B-Chat"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	got, err := c.TextGeneration(context.Background(), "the prompt", DefaultGenerationParams(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "an answer" {
		t.Fatalf("got %q", got)
	}
	if gotPath != "/models/Qwen/Qwen-7B-Chat" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotAuth != "Bearer key" {
		t.Fatalf("auth = %q", gotAuth)
	}
	if gotReq.Inputs != "the prompt" {
		t.Fatalf("inputs = %q", gotReq.Inputs)
	}
	if gotReq.Parameters.MaxNewTokens != 600 || gotReq.Parameters.ReturnFullText {
		t.Fatalf("params = %+v", gotReq.Parameters)
	}
}

func TestTextGenerationUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(Options{APIKey: "key", BaseURL: srv.URL})
	if _, err := c.TextGeneration(context.Background(), "p", DefaultGenerationParams(0)); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestTextGenerationEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, _ := NewClient(Options{APIKey: "key", BaseURL: srv.URL})
	if _, err := c.TextGeneration(context.Background(), "p", DefaultGenerationParams(0)); err == nil {
		t.Fatal("expected error on empty response")
	}
}

func TestEmbed(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode([]embeddingResponse{{Embedding: []float32{0.25, -0.5}}})
	}))
	defer srv.Close()

	c, _ := NewClient(Options{APIKey: "key", BaseURL: srv.URL, EmbedModel: "Qwen3-Embedding-8B"})
	vec, err := c.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.25 {
		t.Fatalf("vec = %v", vec)
	}
	if gotPath != "/models/Qwen3-Embedding-8B" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestEmbedMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not an array", `{"embedding": [1]}`},
		{"empty array", `[]`},
		{"empty embedding", `[{"embedding": []}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c, _ := NewClient(Options{APIKey: "key", BaseURL: srv.URL})
			if _, err := c.Embed(context.Background(), "text"); !errors.Is(err, ErrNoEmbedding) {
				t.Fatalf("err = %v, want ErrNoEmbedding", err)
			}
		})
	}
}

func TestDefaultGenerationParams(t *testing.T) {
	p := DefaultGenerationParams(0)
	if p.MaxNewTokens != 600 {
		t.Fatalf("max new tokens = %d, want 600", p.MaxNewTokens)
	}
	if p.Temperature != 0.1 || p.TopP != 0.8 || p.RepetitionPenalty != 1.2 {
		t.Fatalf("params = %+v", p)
	}
	if DefaultGenerationParams(256).MaxNewTokens != 256 {
		t.Fatal("explicit max new tokens ignored")
	}
}
