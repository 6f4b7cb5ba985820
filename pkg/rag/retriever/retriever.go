// Package retriever finds the chunks a query should be answered from:
// classify, search with over-fetch, rerank with user feedback, finalize.
package retriever

import (
	"context"
	"fmt"
	"sort"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/embedding"
	"ai-docqa-be/pkg/llm"
	"ai-docqa-be/pkg/rag/classifier"
	"ai-docqa-be/pkg/rag/feedback"
	"ai-docqa-be/pkg/vectorindex"

	"github.com/google/uuid"
)

const (
	DefaultTopK            = 5
	DefaultOverFetchFactor = 3
	// DefaultFeedbackWeight bounds the feedback nudge to +/-0.1 of similarity.
	DefaultFeedbackWeight = 0.1
)

type Config struct {
	TopK            int
	OverFetchFactor int
	FeedbackWeight  float64
}

func (c Config) withDefaults() Config {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.OverFetchFactor < 1 {
		c.OverFetchFactor = DefaultOverFetchFactor
	}
	if c.FeedbackWeight < 0 {
		c.FeedbackWeight = DefaultFeedbackWeight
	}
	return c
}

type Classifier interface {
	Classify(ctx context.Context, query string, history []llm.Message) classifier.Result
}

type ChunkText struct {
	Content  string
	Filename string
}

// ChunkSource hydrates chunk text for index hits, keyed by feedback.Key.
type ChunkSource interface {
	ChunkTexts(ctx context.Context, keys []feedback.ChunkKey) (map[string]ChunkText, error)
}

type Request struct {
	UserID      uuid.UUID
	Query       string
	DocumentIDs []uuid.UUID
	Provider    string
	TopK        int
	// Category skips classification when set.
	Category classifier.Category
	History  []llm.Message
}

type RetrievedContext struct {
	DocumentID uuid.UUID
	ChunkIndex int
	Content    string
	Filename   string
	Similarity float64
	Feedback   float64
	Combined   float64
}

type Result struct {
	Classification classifier.Result
	Contexts       []RetrievedContext
	Searched       bool
	Reranked       bool
}

type Retriever struct {
	classifier Classifier
	embedders  *embedding.Registry
	index      vectorindex.Index
	feedback   feedback.Scorer
	chunks     ChunkSource
	cfg        Config
	logger     logger.ILogger
}

func New(
	cls Classifier,
	embedders *embedding.Registry,
	index vectorindex.Index,
	scorer feedback.Scorer,
	chunks ChunkSource,
	cfg Config,
	log logger.ILogger,
) *Retriever {
	return &Retriever{
		classifier: cls,
		embedders:  embedders,
		index:      index,
		feedback:   scorer,
		chunks:     chunks,
		cfg:        cfg.withDefaults(),
		logger:     log,
	}
}

func (r *Retriever) Retrieve(ctx context.Context, req Request) (*Result, error) {
	res := &Result{Classification: r.classify(ctx, req), Contexts: []RetrievedContext{}}

	if !res.Classification.Category.NeedsRetrieval() || len(req.DocumentIDs) == 0 {
		return res, nil
	}

	topK := req.TopK
	if topK <= 0 {
		topK = r.cfg.TopK
	}

	hits, err := r.search(ctx, req, topK*r.cfg.OverFetchFactor)
	if err != nil {
		return nil, err
	}
	res.Searched = true
	if len(hits) == 0 {
		return res, nil
	}

	// rank the whole over-fetched list so hits without a chunk row are
	// backfilled from the remainder
	ranked := Rerank(hits, r.feedbackFor(ctx, req.UserID, hits), r.cfg.FeedbackWeight, 0)
	res.Reranked = true

	res.Contexts, err = r.finalize(ctx, ranked, topK)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *Retriever) classify(ctx context.Context, req Request) classifier.Result {
	if req.Category != "" {
		return classifier.Result{Category: req.Category, Reason: "provided by caller"}
	}
	if r.classifier == nil {
		return classifier.Result{Category: classifier.Fallback, Fallback: true}
	}
	return r.classifier.Classify(ctx, req.Query, req.History)
}

func (r *Retriever) search(ctx context.Context, req Request, limit int) ([]vectorindex.Hit, error) {
	provider, err := r.embedders.Get(req.Provider)
	if err != nil {
		return nil, err
	}

	vec, err := provider.Embed(ctx, req.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := r.index.Search(ctx, vec, vectorindex.Query{
		DocumentIDs: req.DocumentIDs,
		Provider:    provider.Name(),
		TopK:        limit,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	return hits, nil
}

// feedbackFor degrades to an empty map on any failure.
func (r *Retriever) feedbackFor(ctx context.Context, userID uuid.UUID, hits []vectorindex.Hit) map[string]feedback.Score {
	if r.feedback == nil {
		return nil
	}
	keys := make([]feedback.ChunkKey, len(hits))
	for i, h := range hits {
		keys[i] = feedback.ChunkKey{DocumentID: h.DocumentID, ChunkIndex: h.ChunkIndex}
	}

	scores, err := r.feedback.ScoresFor(ctx, userID, keys)
	if err != nil {
		r.logger.Warn("RETRIEVER", "Feedback lookup failed, ranking by similarity only", map[string]interface{}{
			"user_id": userID.String(),
			"error":   err.Error(),
		})
		return nil
	}
	return scores
}

// Rerank combines similarity with weighted feedback, sorts by the combined
// score (ties keep similarity order) and keeps topK. topK <= 0 keeps all.
func Rerank(hits []vectorindex.Hit, scores map[string]feedback.Score, weight float64, topK int) []RetrievedContext {
	out := make([]RetrievedContext, len(hits))
	for i, h := range hits {
		fb := feedback.Lookup(scores, feedback.ChunkKey{DocumentID: h.DocumentID, ChunkIndex: h.ChunkIndex}).Value
		out[i] = RetrievedContext{
			DocumentID: h.DocumentID,
			ChunkIndex: h.ChunkIndex,
			Similarity: h.Similarity,
			Feedback:   fb,
			Combined:   h.Similarity + weight*fb,
		}
	}

	// hits arrive in similarity order, so a stable sort breaks ties by that rank
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Combined > out[j].Combined
	})

	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}

// finalize hydrates ranked in order and keeps the first topK that still have
// a chunk row.
func (r *Retriever) finalize(ctx context.Context, ranked []RetrievedContext, topK int) ([]RetrievedContext, error) {
	keys := make([]feedback.ChunkKey, len(ranked))
	for i, c := range ranked {
		keys[i] = feedback.ChunkKey{DocumentID: c.DocumentID, ChunkIndex: c.ChunkIndex}
	}

	texts, err := r.chunks.ChunkTexts(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to load chunk text: %w", err)
	}

	out := make([]RetrievedContext, 0, min(topK, len(ranked)))
	for i, c := range ranked {
		if len(out) == topK {
			break
		}
		text, ok := texts[keys[i].String()]
		if !ok {
			r.logger.Warn("RETRIEVER", "Index hit without chunk row, skipping", map[string]interface{}{"key": keys[i].String()})
			continue
		}
		c.Content = text.Content
		c.Filename = text.Filename
		out = append(out, c)
	}
	return out, nil
}
