package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("pinecone: api key is required")

// Options configures the Pinecone REST client.
type Options struct {
	APIKey         string
	ControlURL     string
	IndexName      string
	IndexHost      string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client performs HTTP calls against one Pinecone index. The index data-plane
// host is resolved lazily from the control plane on first use; resolution is
// idempotent and safe under concurrent first calls.
type Client struct {
	apiKey     string
	controlURL string
	indexName  string
	httpClient *http.Client

	mu        sync.Mutex
	indexHost string
}

// Match is one scored vector returned by a query.
type Match struct {
	ID       string            `json:"id"`
	Score    float64           `json:"score"`
	Metadata map[string]string `json:"metadata"`
}

// Vector is one embedding plus metadata for upsert.
type Vector struct {
	ID       string            `json:"id"`
	Values   []float32         `json:"values"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type queryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type queryResponse struct {
	Matches []Match `json:"matches"`
}

type upsertRequest struct {
	Vectors []Vector `json:"vectors"`
}

type describeIndexResponse struct {
	Host string `json:"host"`
}

// NewClient constructs a client with sane defaults.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(opts.IndexName) == "" && strings.TrimSpace(opts.IndexHost) == "" {
		return nil, errors.New("pinecone: index name or host is required")
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	controlURL := strings.TrimRight(opts.ControlURL, "/")
	if controlURL == "" {
		controlURL = "https://api.pinecone.io"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		controlURL: controlURL,
		indexName:  strings.TrimSpace(opts.IndexName),
		httpClient: httpClient,
		indexHost:  normalizeHost(opts.IndexHost),
	}, nil
}

// Query returns the topK nearest vectors, highest score first, as the index
// ranks them. An empty match list is a valid result, not an error.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	host, err := c.ensureIndexHost(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := c.post(ctx, host+"/query", queryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, err
	}
	var decoded queryResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("pinecone: decode query response: %w", err)
	}
	return decoded.Matches, nil
}

// Upsert writes vectors into the index.
func (c *Client) Upsert(ctx context.Context, vectors []Vector) error {
	if len(vectors) == 0 {
		return nil
	}
	host, err := c.ensureIndexHost(ctx)
	if err != nil {
		return err
	}
	_, err = c.post(ctx, host+"/vectors/upsert", upsertRequest{Vectors: vectors})
	return err
}

// ensureIndexHost resolves the data-plane host once. Failed resolution leaves
// the client uninitialized so a later call can retry; a successful resolution
// is cached for the life of the client.
func (c *Client) ensureIndexHost(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexHost != "" {
		return c.indexHost, nil
	}

	endpoint := c.controlURL + "/indexes/" + url.PathEscape(c.indexName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("pinecone: build describe request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("pinecone: describe index: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("pinecone: read describe response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("pinecone: describe status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded describeIndexResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("pinecone: decode describe response: %w", err)
	}
	if decoded.Host == "" {
		return "", errors.New("pinecone: describe returned empty host")
	}
	c.indexHost = normalizeHost(decoded.Host)
	return c.indexHost, nil
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("pinecone: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("pinecone: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinecone: http request: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pinecone: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pinecone: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

func normalizeHost(host string) string {
	host = strings.TrimSpace(strings.TrimRight(host, "/"))
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}
