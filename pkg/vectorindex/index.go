// Package vectorindex stores chunk vectors per (document, provider) and
// answers scoped similarity queries.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
)

var ErrInvalidEntries = errors.New("invalid vector entries")

type Entry struct {
	ChunkIndex int
	Vector     []float32
	Metadata   map[string]string
}

type Query struct {
	DocumentIDs []uuid.UUID
	Provider    string
	TopK        int
}

type Hit struct {
	DocumentID uuid.UUID
	ChunkIndex int
	Similarity float64
}

// Index is implemented by every backend.
//
// Upsert replaces all vectors of the document for that provider. Search only
// compares vectors of q.Provider inside q.DocumentIDs, returns at most q.TopK
// hits ordered by SortHits, and returns an empty result for an empty scope.
type Index interface {
	Upsert(ctx context.Context, documentID uuid.UUID, provider string, entries []Entry) error
	Search(ctx context.Context, vector []float32, q Query) ([]Hit, error)
	DeleteDocument(ctx context.Context, documentID uuid.UUID) error
}

// SortHits orders by similarity desc, then chunk index asc, then document id.
func SortHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		if hits[i].ChunkIndex != hits[j].ChunkIndex {
			return hits[i].ChunkIndex < hits[j].ChunkIndex
		}
		return hits[i].DocumentID.String() < hits[j].DocumentID.String()
	})
}

// ValidateEntries rejects duplicate chunk indexes and mixed dimensions.
func ValidateEntries(entries []Entry) error {
	seen := make(map[int]struct{}, len(entries))
	dims := -1
	for _, e := range entries {
		if _, dup := seen[e.ChunkIndex]; dup {
			return fmt.Errorf("duplicate chunk index %d: %w", e.ChunkIndex, ErrInvalidEntries)
		}
		seen[e.ChunkIndex] = struct{}{}
		if len(e.Vector) == 0 {
			return fmt.Errorf("empty vector for chunk %d: %w", e.ChunkIndex, ErrInvalidEntries)
		}
		if dims >= 0 && len(e.Vector) != dims {
			return fmt.Errorf("chunk %d has %d dims, want %d: %w", e.ChunkIndex, len(e.Vector), dims, ErrInvalidEntries)
		}
		dims = len(e.Vector)
	}
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 when the lengths
// differ or either vector is zero.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
