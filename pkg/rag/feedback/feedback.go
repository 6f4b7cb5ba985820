// Package feedback reads per-user chunk feedback aggregates for reranking.
package feedback

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
)

type ChunkKey struct {
	DocumentID uuid.UUID
	ChunkIndex int
}

// Key formats the aggregate key "<documentId>:<chunkIndex>".
func Key(documentID uuid.UUID, chunkIndex int) string {
	return fmt.Sprintf("%s:%d", documentID, chunkIndex)
}

func (k ChunkKey) String() string {
	return Key(k.DocumentID, k.ChunkIndex)
}

// Score is the stored aggregate for one (user, document, chunk).
type Score struct {
	Positive int
	Negative int
	Total    int
	Value    float64 // normalized, in [-1, 1]
}

// Scorer returns only the aggregates that exist for userID. Missing keys are
// neutral; use Lookup.
type Scorer interface {
	ScoresFor(ctx context.Context, userID uuid.UUID, keys []ChunkKey) (map[string]Score, error)
}

// Normalize computes (positive - negative) / total, or 0 when there are no votes.
func Normalize(positive, negative int) float64 {
	if positive < 0 || negative < 0 {
		return 0
	}
	total := positive + negative
	if total == 0 {
		return 0
	}
	return clamp(float64(positive-negative) / float64(total))
}

// Lookup returns the score for key, or the neutral score when it is absent
// or malformed.
func Lookup(scores map[string]Score, key ChunkKey) Score {
	s, ok := scores[key.String()]
	if !ok {
		return Score{}
	}
	return Sanitize(s)
}

// Sanitize maps malformed rows (negative counts, out-of-range or NaN values)
// to a well-formed score.
func Sanitize(s Score) Score {
	if s.Positive < 0 || s.Negative < 0 || s.Total <= 0 || math.IsNaN(s.Value) {
		return Score{}
	}
	s.Value = clamp(s.Value)
	return s
}

func clamp(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
