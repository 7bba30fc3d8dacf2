package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"golang.org/x/time/rate"
)

// Embedder turns text into vectors. Implementations embed into distinct
// vector spaces, so vectors from different embedders must never be compared
// against each other.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the output vector length.
	Dimension() int
}

// HashEmbedder is the deterministic offline embedding strategy. Each token
// contributes a pseudo-random but stable pattern to the output vector, so
// equal texts always embed identically and overlapping texts stay close
// under cosine similarity. It requires no network access and backs the
// degraded retrieval path.
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder creates a hash embedder with the given dimension.
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = 768
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension returns the output vector length.
func (h *HashEmbedder) Dimension() int { return h.dimension }

// Embed produces a deterministic unit vector for the text.
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float64, h.dimension)

	for _, token := range tokenize(text) {
		seed := fnv64(token)
		state := seed
		for i := 0; i < h.dimension; i++ {
			state = splitmix64(state)
			// Map to [-1, 1)
			vec[i] += float64(int64(state))/float64(math.MaxInt64)
		}
	}

	// L2 normalize so cosine similarity equals the dot product.
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, h.dimension)
	if norm == 0 {
		return out, nil
	}
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out, nil
}

// EmbedBatch embeds each text independently.
func (h *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := h.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

func fnv64(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s)) //nolint:errcheck
	return h.Sum64()
}

// splitmix64 is a fast deterministic PRNG step.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// ModelEmbedder wraps a langchaingo embedder with rate limiting and batch
// chunking so upstream batch limits are respected.
type ModelEmbedder struct {
	embedder  embeddings.Embedder
	dimension int
	batchSize int
	limiter   *rate.Limiter
}

// NewModelEmbedder creates a model-backed embedder. batchSize caps items per
// upstream call; ratePerSec bounds call frequency.
func NewModelEmbedder(embedder embeddings.Embedder, dimension, batchSize int, ratePerSec float64) *ModelEmbedder {
	if batchSize <= 0 {
		batchSize = 2048
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if ratePerSec > 0 {
		limiter = rate.NewLimiter(rate.Limit(ratePerSec), 1)
	}
	return &ModelEmbedder{
		embedder:  embedder,
		dimension: dimension,
		batchSize: batchSize,
		limiter:   limiter,
	}
}

// Dimension returns the output vector length.
func (m *ModelEmbedder) Dimension() int { return m.dimension }

// Embed embeds a single text.
func (m *ModelEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in chunks of at most batchSize items.
func (m *ModelEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += m.batchSize {
		end := start + m.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := m.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("memory: embed rate limit: %w", err)
		}

		vecs, err := m.embedder.EmbedDocuments(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("memory: embed batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, vecs...)
	}

	return out, nil
}
