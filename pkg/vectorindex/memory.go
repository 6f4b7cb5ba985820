package vectorindex

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryIndex is a brute-force in-process index for tests and local runs.
type MemoryIndex struct {
	mu        sync.RWMutex
	providers map[string]map[uuid.UUID][]Entry
}

var _ Index = (*MemoryIndex)(nil)

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{providers: make(map[string]map[uuid.UUID][]Entry)}
}

func (m *MemoryIndex) Upsert(ctx context.Context, documentID uuid.UUID, provider string, entries []Entry) error {
	if err := ValidateEntries(entries); err != nil {
		return err
	}

	copied := make([]Entry, len(entries))
	for i, e := range entries {
		vec := make([]float32, len(e.Vector))
		copy(vec, e.Vector)
		copied[i] = Entry{ChunkIndex: e.ChunkIndex, Vector: vec, Metadata: e.Metadata}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	docs, ok := m.providers[provider]
	if !ok {
		docs = make(map[uuid.UUID][]Entry)
		m.providers[provider] = docs
	}
	if len(copied) == 0 {
		delete(docs, documentID)
		return nil
	}
	docs[documentID] = copied
	return nil
}

func (m *MemoryIndex) Search(ctx context.Context, vector []float32, q Query) ([]Hit, error) {
	if len(q.DocumentIDs) == 0 || q.TopK <= 0 {
		return []Hit{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := m.providers[q.Provider]
	hits := make([]Hit, 0)
	seen := make(map[uuid.UUID]struct{}, len(q.DocumentIDs))
	for _, id := range q.DocumentIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		for _, e := range docs[id] {
			if len(e.Vector) != len(vector) {
				continue
			}
			hits = append(hits, Hit{DocumentID: id, ChunkIndex: e.ChunkIndex, Similarity: Cosine(vector, e.Vector)})
		}
	}

	SortHits(hits)
	if len(hits) > q.TopK {
		hits = hits[:q.TopK]
	}
	return hits, nil
}

func (m *MemoryIndex) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, docs := range m.providers {
		delete(docs, documentID)
	}
	return nil
}

// Count reports how many vectors are stored for the document and provider.
func (m *MemoryIndex) Count(documentID uuid.UUID, provider string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.providers[provider][documentID])
}
