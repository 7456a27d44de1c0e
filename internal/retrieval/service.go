// Package retrieval turns a text query into ranked reference passages by
// composing an embedding model with a vector index.
package retrieval

import (
	"context"
	"fmt"

	"server/internal/domain"
	"server/internal/providers/pinecone"
)

// Embedder generates vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex queries and stores document embeddings.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int) ([]pinecone.Match, error)
	Upsert(ctx context.Context, vectors []pinecone.Vector) error
}

// Service is the retrieval index client used by the query pipeline.
type Service struct {
	embedder Embedder
	index    VectorIndex
	topK     int
}

// NewService creates a Service with injected dependencies.
func NewService(embedder Embedder, index VectorIndex, topK int) *Service {
	if topK <= 0 {
		topK = 5
	}
	return &Service{embedder: embedder, index: index, topK: topK}
}

// SearchSimilar embeds the query and returns the most similar passages,
// highest similarity first. Zero passages is a valid outcome; any upstream
// failure wraps domain.ErrRetrievalUnavailable.
func (s *Service) SearchSimilar(ctx context.Context, query string, topK int) ([]domain.Passage, error) {
	if topK <= 0 {
		topK = s.topK
	}
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrRetrievalUnavailable, err)
	}
	matches, err := s.index.Query(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: query index: %v", domain.ErrRetrievalUnavailable, err)
	}
	passages := make([]domain.Passage, 0, len(matches))
	for _, m := range matches {
		passages = append(passages, domain.Passage{
			ID:         m.ID,
			Content:    m.Metadata["content"],
			Title:      m.Metadata["title"],
			URL:        m.Metadata["url"],
			Similarity: m.Score,
		})
	}
	return passages, nil
}

// UpsertDocument embeds a reference document and writes it into the index
// with its text carried as metadata.
func (s *Service) UpsertDocument(ctx context.Context, id, text string, metadata map[string]string) error {
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("%w: embed document: %v", domain.ErrRetrievalUnavailable, err)
	}
	merged := map[string]string{"content": text}
	for k, v := range metadata {
		merged[k] = v
	}
	if err := s.index.Upsert(ctx, []pinecone.Vector{{ID: id, Values: vector, Metadata: merged}}); err != nil {
		return fmt.Errorf("%w: upsert document: %v", domain.ErrRetrievalUnavailable, err)
	}
	return nil
}
