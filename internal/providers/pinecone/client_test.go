package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

func newIndexServer(t *testing.T, describeCalls *int32, matches []Match) (control, data *httptest.Server) {
	t.Helper()
	data = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/query":
			_ = json.NewEncoder(w).Encode(queryResponse{Matches: matches})
		case "/vectors/upsert":
			w.WriteHeader(http.StatusOK)
		default:
			http.NotFound(w, r)
		}
	}))
	control = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(describeCalls, 1)
		if r.URL.Path != "/indexes/docs" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(describeIndexResponse{Host: data.URL})
	}))
	return control, data
}

func TestQueryResolvesHostLazily(t *testing.T) {
	var describeCalls int32
	control, data := newIndexServer(t, &describeCalls, []Match{
		{ID: "v1", Score: 0.8, Metadata: map[string]string{"content": "hello"}},
	})
	defer control.Close()
	defer data.Close()

	c, err := NewClient(Options{APIKey: "key", ControlURL: control.URL, IndexName: "docs"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	matches, err := c.Query(context.Background(), []float32{0.1}, 3)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != "v1" || matches[0].Metadata["content"] != "hello" {
		t.Fatalf("matches = %+v", matches)
	}

	if _, err := c.Query(context.Background(), []float32{0.2}, 3); err != nil {
		t.Fatalf("second query: %v", err)
	}
	if n := atomic.LoadInt32(&describeCalls); n != 1 {
		t.Fatalf("describe called %d times, want 1", n)
	}
}

func TestConcurrentFirstQueriesResolveOnce(t *testing.T) {
	var describeCalls int32
	control, data := newIndexServer(t, &describeCalls, nil)
	defer control.Close()
	defer data.Close()

	c, err := NewClient(Options{APIKey: "key", ControlURL: control.URL, IndexName: "docs"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Query(context.Background(), []float32{0.3}, 2); err != nil {
				t.Errorf("query: %v", err)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&describeCalls); n != 1 {
		t.Fatalf("describe called %d times, want 1", n)
	}
}

func TestFailedResolutionRetries(t *testing.T) {
	var describeCalls int32
	data := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(queryResponse{})
	}))
	defer data.Close()

	control := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&describeCalls, 1) == 1 {
			http.Error(w, "internal", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(describeIndexResponse{Host: data.URL})
	}))
	defer control.Close()

	c, err := NewClient(Options{APIKey: "key", ControlURL: control.URL, IndexName: "docs"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	if _, err := c.Query(context.Background(), []float32{0.1}, 1); err == nil {
		t.Fatal("first query should fail while the control plane errors")
	}
	if _, err := c.Query(context.Background(), []float32{0.1}, 1); err != nil {
		t.Fatalf("second query should succeed after retrying resolution: %v", err)
	}
	if n := atomic.LoadInt32(&describeCalls); n != 2 {
		t.Fatalf("describe called %d times, want 2", n)
	}
}

func TestQueryRequestShape(t *testing.T) {
	var gotReq queryRequest
	var gotAPIKey string
	data := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("Api-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(queryResponse{})
	}))
	defer data.Close()

	c, err := NewClient(Options{APIKey: "secret", IndexHost: data.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := c.Query(context.Background(), []float32{1, 2}, 7); err != nil {
		t.Fatalf("query: %v", err)
	}

	if gotAPIKey != "secret" {
		t.Fatalf("api key header = %q", gotAPIKey)
	}
	if gotReq.TopK != 7 || !gotReq.IncludeMetadata || len(gotReq.Vector) != 2 {
		t.Fatalf("request = %+v", gotReq)
	}
}

func TestUpsertSkipsEmptyBatch(t *testing.T) {
	c, err := NewClient(Options{APIKey: "key", IndexHost: "https://unused.example"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := c.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("empty upsert should be a no-op, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(Options{IndexName: "docs"}); err == nil {
		t.Fatal("missing api key must fail")
	}
	if _, err := NewClient(Options{APIKey: "key"}); err == nil {
		t.Fatal("missing index name and host must fail")
	}
}

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"docs-abc.svc.pinecone.io", "https://docs-abc.svc.pinecone.io"},
		{"https://docs-abc.svc.pinecone.io/", "https://docs-abc.svc.pinecone.io"},
		{"http://localhost:9999", "http://localhost:9999"},
	}
	for _, tt := range tests {
		if got := normalizeHost(tt.in); got != tt.want {
			t.Fatalf("normalizeHost(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
