package huggingface

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
	"time"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("huggingface: api key is required")

// ErrNoEmbedding indicates the inference API answered without an embedding payload.
var ErrNoEmbedding = errors.New("huggingface: embedding not returned")

// Options configures the HuggingFace Inference API client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	EmbedModel     string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client performs HTTP calls to the HuggingFace Inference API for text
// generation and feature-extraction embeddings.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	embedModel string
	httpClient *http.Client
}

// GenerationParams mirror the text-generation inference parameters. The
// defaults bias toward determinism: this service retrieves facts, it does not
// write prose.
type GenerationParams struct {
	MaxNewTokens      int     `json:"max_new_tokens"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
	ReturnFullText    bool    `json:"return_full_text"`
}

// DefaultGenerationParams returns the parameter set used for grounded answers.
func DefaultGenerationParams(maxNewTokens int) GenerationParams {
	if maxNewTokens <= 0 {
		maxNewTokens = 600
	}
	return GenerationParams{
		MaxNewTokens:      maxNewTokens,
		Temperature:       0.1,
		TopP:              0.8,
		RepetitionPenalty: 1.2,
		ReturnFullText:    false,
	}
}

type generationRequest struct {
	Inputs     string           `json:"inputs"`
	Parameters GenerationParams `json:"parameters"`
}

type generationResponse struct {
	GeneratedText string `json:"generated_text"`
}

type embeddingRequest struct {
	Inputs string `json:"inputs"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api-inference.huggingface.co"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "Qwen/Qwen-7B-Chat"
	}
	embedModel := strings.TrimSpace(opts.EmbedModel)
	if embedModel == "" {
		embedModel = "Qwen3-Embedding-8B"
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		embedModel: embedModel,
		httpClient: httpClient,
	}, nil
}

// Model returns the configured generation model identifier.
func (c *Client) Model() string {
	return c.model
}

// TextGeneration runs one completion call and returns the raw generated text.
func (c *Client) TextGeneration(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	payload := generationRequest{Inputs: prompt, Parameters: params}
	raw, err := c.post(ctx, c.modelEndpoint(c.model), payload)
	if err != nil {
		return "", err
	}
	var decoded []generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("huggingface: decode generation response: %w", err)
	}
	if len(decoded) == 0 {
		return "", errors.New("huggingface: empty generation response")
	}
	return decoded[0].GeneratedText, nil
}

// Embed converts text into an embedding vector using the configured
// feature-extraction model.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	raw, err := c.post(ctx, c.modelEndpoint(c.embedModel), embeddingRequest{Inputs: text})
	if err != nil {
		return nil, err
	}
	var decoded []embeddingResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoEmbedding, err)
	}
	if len(decoded) == 0 || len(decoded[0].Embedding) == 0 {
		return nil, ErrNoEmbedding
	}
	return decoded[0].Embedding, nil
}

func (c *Client) modelEndpoint(model string) string {
	escaped := make([]string, 0, 2)
	for _, part := range strings.Split(model, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return c.baseURL + "/models/" + strings.Join(escaped, "/")
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("huggingface: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("huggingface: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("huggingface: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("huggingface: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
