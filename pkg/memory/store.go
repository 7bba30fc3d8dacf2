package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/studyflow/studyflow/pkg/storage"
)

// storeLogger is the minimal logger interface used by the memory subsystem.
type storeLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// nopLogger is a no-op logger.
type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}

// StoreOption configures a VectorStore.
type StoreOption func(*VectorStore)

// WithRemoteBackend attaches a remote vector backend and the embedder that
// populates it. The remote space and the local hash space are kept strictly
// separate: a query embedded by one embedder is only ever compared against
// vectors produced by the same embedder.
func WithRemoteBackend(backend VectorBackend, embedder Embedder) StoreOption {
	return func(s *VectorStore) {
		s.remote = backend
		s.remoteEmbed = embedder
	}
}

// WithStoreLogger sets the logger.
func WithStoreLogger(log storeLogger) StoreOption {
	return func(s *VectorStore) {
		s.logger = log
	}
}

// WithStoreObserver sets the metrics observer.
func WithStoreObserver(obs StoreObserver) StoreOption {
	return func(s *VectorStore) {
		s.observer = obs
	}
}

// StoreObserver receives store events for metrics.
type StoreObserver interface {
	MemoryStored(memoryType string)
	SearchServed(backend string) // "remote" or "local"
	BackendFallback(op string)
}

type nopObserver struct{}

func (nopObserver) MemoryStored(string)    {}
func (nopObserver) SearchServed(string)    {}
func (nopObserver) BackendFallback(string) {}

// VectorStore is durable storage for embedded learning memories with
// similarity search and metadata filtering. Canonical records live in the
// student-keyed repository; vectors live in a remote backend when one is
// configured and always in the local hash index, which is the degraded
// path when the remote backend misbehaves.
type VectorStore struct {
	repo       storage.Repository
	local      *LocalIndex
	localEmbed Embedder

	remote      VectorBackend
	remoteEmbed Embedder

	logger   storeLogger
	observer StoreObserver

	// mu serializes read-modify-write cycles on a student's record map.
	mu sync.Mutex
}

// NewVectorStore creates a vector store. The hash embedder and local index
// are always present so the store works fully offline.
func NewVectorStore(repo storage.Repository, dimension int, opts ...StoreOption) *VectorStore {
	s := &VectorStore{
		repo:       repo,
		local:      NewLocalIndex(dimension),
		localEmbed: NewHashEmbedder(dimension),
		logger:     nopLogger{},
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store persists one memory and indexes it for retrieval. Backend failures
// are logged and absorbed: a flaky vector backend must not block memory
// capture.
func (s *VectorStore) Store(ctx context.Context, studentID string, mem *LearningMemory) error {
	if studentID == "" {
		return ErrInvalidStudentID
	}
	return s.StoreBatch(ctx, studentID, []*LearningMemory{mem})
}

// StoreBatch persists several memories in one pass.
func (s *VectorStore) StoreBatch(ctx context.Context, studentID string, mems []*LearningMemory) error {
	if studentID == "" {
		return ErrInvalidStudentID
	}
	if len(mems) == 0 {
		return nil
	}

	s.mu.Lock()
	records, err := s.loadRecords(ctx, studentID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	for _, m := range mems {
		records[m.ID] = m
	}
	err = s.saveRecords(ctx, studentID, records)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	texts := make([]string, len(mems))
	for i, m := range mems {
		texts[i] = m.EmbeddingText()
	}

	// Local hash index is authoritative for the degraded path.
	localVecs, err := s.localEmbed.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("memory: hash embed: %w", err)
	}
	localRecords := make([]VectorRecord, len(mems))
	for i, m := range mems {
		localRecords[i] = VectorRecord{ID: m.ID, Vector: localVecs[i]}
	}
	if err := s.local.Upsert(ctx, studentID, localRecords); err != nil {
		return err
	}

	// Remote backend is best effort.
	if s.remote != nil {
		if err := s.upsertRemote(ctx, studentID, mems, texts); err != nil {
			s.observer.BackendFallback("store")
			s.logger.Warn("vector backend store failed, continuing with local index",
				"student_id", studentID, "count", len(mems), "error", err)
		}
	}

	for _, m := range mems {
		s.observer.MemoryStored(string(m.Type))
	}
	return nil
}

func (s *VectorStore) upsertRemote(ctx context.Context, studentID string, mems []*LearningMemory, texts []string) error {
	vecs, err := s.remoteEmbed.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	records := make([]VectorRecord, len(mems))
	for i, m := range mems {
		records[i] = VectorRecord{ID: m.ID, Vector: vecs[i]}
	}
	return s.remote.Upsert(ctx, studentID, records)
}

// SearchSimilar returns memories ranked by cosine similarity to the query,
// after metadata filters. The remote backend is preferred; any failure
// there degrades to the local hash index rather than surfacing an error.
func (s *VectorStore) SearchSimilar(ctx context.Context, req SearchRequest) ([]ScoredMemory, error) {
	if req.StudentID == "" {
		return nil, ErrInvalidStudentID
	}
	if req.Query == "" {
		return nil, ErrInvalidQuery
	}
	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	records, err := s.snapshotRecords(ctx, req.StudentID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Overfetch so post-filtering still fills topK.
	fetchK := topK * 3
	if fetchK < 30 {
		fetchK = 30
	}

	matches, backend := s.queryBackend(ctx, req.StudentID, req.Query, fetchK)
	s.observer.SearchServed(backend)

	results := make([]ScoredMemory, 0, topK)
	for _, m := range matches {
		mem, ok := records[m.ID]
		if !ok {
			continue
		}
		if !req.Filters.Matches(mem) {
			continue
		}
		results = append(results, ScoredMemory{Memory: mem, Similarity: m.Similarity})
		if len(results) == topK {
			break
		}
	}
	return results, nil
}

// queryBackend tries the remote backend first and falls back to the local
// hash index. Each backend only ever sees vectors from its own embedder.
func (s *VectorStore) queryBackend(ctx context.Context, studentID, query string, fetchK int) ([]VectorMatch, string) {
	if s.remote != nil {
		vec, err := s.remoteEmbed.Embed(ctx, query)
		if err == nil {
			matches, qerr := s.remote.Query(ctx, studentID, vec, fetchK)
			if qerr == nil {
				return matches, "remote"
			}
			err = qerr
		}
		s.observer.BackendFallback("search")
		s.logger.Warn("vector backend query failed, falling back to local index",
			"student_id", studentID, "error", err)
	}

	vec, err := s.localEmbed.Embed(ctx, query)
	if err != nil {
		return nil, "local"
	}
	matches, err := s.local.Query(ctx, studentID, vec, fetchK)
	if err != nil {
		return nil, "local"
	}
	return matches, "local"
}

// Get returns one memory by id, or nil when absent.
func (s *VectorStore) Get(ctx context.Context, studentID, memoryID string) (*LearningMemory, error) {
	records, err := s.snapshotRecords(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return records[memoryID], nil
}

// GetAll returns every memory for a student, newest first.
func (s *VectorStore) GetAll(ctx context.Context, studentID string) ([]*LearningMemory, error) {
	if studentID == "" {
		return nil, ErrInvalidStudentID
	}
	records, err := s.snapshotRecords(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]*LearningMemory, 0, len(records))
	for _, m := range records {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a stored memory record. The embedding is refreshed since
// structural tags feed the embedding text.
func (s *VectorStore) Update(ctx context.Context, studentID string, mem *LearningMemory) error {
	if studentID == "" {
		return ErrInvalidStudentID
	}

	s.mu.Lock()
	records, err := s.loadRecords(ctx, studentID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if _, ok := records[mem.ID]; !ok {
		s.mu.Unlock()
		return storage.ErrNotFound
	}
	records[mem.ID] = mem
	err = s.saveRecords(ctx, studentID, records)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	vec, err := s.localEmbed.Embed(ctx, mem.EmbeddingText())
	if err != nil {
		return err
	}
	if err := s.local.Upsert(ctx, studentID, []VectorRecord{{ID: mem.ID, Vector: vec}}); err != nil {
		return err
	}

	if s.remote != nil {
		if err := s.upsertRemote(ctx, studentID, []*LearningMemory{mem}, []string{mem.EmbeddingText()}); err != nil {
			s.observer.BackendFallback("update")
			s.logger.Warn("vector backend update failed", "student_id", studentID, "memory_id", mem.ID, "error", err)
		}
	}
	return nil
}

// DeleteAll erases every memory for a student. Individual memories are
// never deleted; erasure is all or nothing.
func (s *VectorStore) DeleteAll(ctx context.Context, studentID string) (int, error) {
	if studentID == "" {
		return 0, ErrInvalidStudentID
	}

	s.mu.Lock()
	records, err := s.loadRecords(ctx, studentID)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	count := len(records)
	err = s.repo.Delete(ctx, storage.BucketMemories, studentID)
	s.mu.Unlock()
	if err != nil {
		return 0, err
	}

	if err := s.local.DeleteStudent(ctx, studentID); err != nil {
		return count, err
	}
	if s.remote != nil {
		if err := s.remote.DeleteStudent(ctx, studentID); err != nil {
			s.logger.Warn("vector backend erase failed", "student_id", studentID, "error", err)
		}
	}
	return count, nil
}

// loadRecords reads the student's record map. Callers must hold s.mu when
// they intend to write the map back.
func (s *VectorStore) loadRecords(ctx context.Context, studentID string) (map[string]*LearningMemory, error) {
	data, err := s.repo.Get(ctx, storage.BucketMemories, studentID)
	if errors.Is(err, storage.ErrNotFound) {
		return make(map[string]*LearningMemory), nil
	}
	if err != nil {
		return nil, fmt.Errorf("memory: load records: %w", err)
	}

	var records map[string]*LearningMemory
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &storage.SerializationError{Operation: "unmarshal", Cause: err}
	}
	return records, nil
}

func (s *VectorStore) snapshotRecords(ctx context.Context, studentID string) (map[string]*LearningMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadRecords(ctx, studentID)
}

func (s *VectorStore) saveRecords(ctx context.Context, studentID string, records map[string]*LearningMemory) error {
	data, err := json.Marshal(records)
	if err != nil {
		return &storage.SerializationError{Operation: "marshal", Cause: err}
	}
	if err := s.repo.Set(ctx, storage.BucketMemories, studentID, data); err != nil {
		return fmt.Errorf("memory: save records: %w", err)
	}
	return nil
}
