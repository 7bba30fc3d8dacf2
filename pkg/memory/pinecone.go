package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
)

// PineconeConfig holds the remote vector backend settings.
type PineconeConfig struct {
	APIKey    string
	IndexName string
	Namespace string
}

// PineconeBackend implements VectorBackend against a Pinecone index.
// Students are isolated by namespace.
type PineconeBackend struct {
	client *pinecone.Client
	config PineconeConfig

	mu    sync.Mutex
	host  string
	conns map[string]*pinecone.IndexConnection // namespace -> connection
}

// NewPineconeBackend creates a Pinecone-backed vector store and resolves
// the index host.
func NewPineconeBackend(ctx context.Context, cfg PineconeConfig) (*PineconeBackend, error) {
	client, err := pinecone.NewClient(pinecone.NewClientParams{
		ApiKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: create pinecone client: %w", err)
	}

	idx, err := client.DescribeIndex(ctx, cfg.IndexName)
	if err != nil {
		return nil, fmt.Errorf("memory: describe index %s: %w", cfg.IndexName, err)
	}

	return &PineconeBackend{
		client: client,
		config: cfg,
		host:   idx.Host,
		conns:  make(map[string]*pinecone.IndexConnection),
	}, nil
}

// namespaceFor isolates each student in its own namespace.
func (p *PineconeBackend) namespaceFor(studentID string) string {
	return fmt.Sprintf("%s-%s", p.config.Namespace, studentID)
}

func (p *PineconeBackend) connection(studentID string) (*pinecone.IndexConnection, error) {
	ns := p.namespaceFor(studentID)

	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[ns]; ok {
		return conn, nil
	}

	conn, err := p.client.Index(pinecone.NewIndexConnParams{
		Host:      p.host,
		Namespace: ns,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: index connection for %s: %w", ns, err)
	}
	p.conns[ns] = conn
	return conn, nil
}

// Upsert writes embedded memories into the student's namespace.
func (p *PineconeBackend) Upsert(ctx context.Context, studentID string, records []VectorRecord) error {
	conn, err := p.connection(studentID)
	if err != nil {
		return err
	}

	vectors := make([]*pinecone.Vector, 0, len(records))
	for _, r := range records {
		values := r.Vector
		vectors = append(vectors, &pinecone.Vector{
			Id:     r.ID,
			Values: &values,
		})
	}

	if _, err := conn.UpsertVectors(ctx, vectors); err != nil {
		return fmt.Errorf("%w: upsert: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// Query returns the topK most similar memory ids for the student.
func (p *PineconeBackend) Query(ctx context.Context, studentID string, vector []float32, topK int) ([]VectorMatch, error) {
	conn, err := p.connection(studentID)
	if err != nil {
		return nil, err
	}

	result, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          vector,
		TopK:            uint32(topK),
		IncludeValues:   false,
		IncludeMetadata: false,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrBackendUnavailable, err)
	}

	matches := make([]VectorMatch, 0, len(result.Matches))
	for _, m := range result.Matches {
		if m.Vector == nil {
			continue
		}
		matches = append(matches, VectorMatch{
			ID:         m.Vector.Id,
			Similarity: float64(m.Score),
		})
	}
	return matches, nil
}

// Delete removes vectors by id from the student's namespace.
func (p *PineconeBackend) Delete(ctx context.Context, studentID string, ids []string) error {
	conn, err := p.connection(studentID)
	if err != nil {
		return err
	}
	if err := conn.DeleteVectorsById(ctx, ids); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// DeleteStudent drops the student's entire namespace.
func (p *PineconeBackend) DeleteStudent(ctx context.Context, studentID string) error {
	conn, err := p.connection(studentID)
	if err != nil {
		return err
	}
	if err := conn.DeleteAllVectorsInNamespace(ctx); err != nil {
		return fmt.Errorf("%w: delete namespace: %v", ErrBackendUnavailable, err)
	}

	p.mu.Lock()
	delete(p.conns, p.namespaceFor(studentID))
	p.mu.Unlock()
	return nil
}
