// Package qdrant backs vectorindex.Index with a Qdrant server. Each provider
// tag gets its own collection so vectors of different models never mix.
package qdrant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"ai-docqa-be/internal/pkg/logger"
	"ai-docqa-be/pkg/apperror"
	"ai-docqa-be/pkg/retry"
	"ai-docqa-be/pkg/vectorindex"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	fieldDocumentID = "document_id"
	fieldChunkIndex = "chunk_index"
)

type Config struct {
	Host             string
	Port             int
	APIKey           string
	UseTLS           bool
	CollectionPrefix string
}

type Index struct {
	client *qdrant.Client
	prefix string
	policy retry.Policy
	log    logger.ILogger

	mu    sync.Mutex
	ready map[string]bool
}

var _ vectorindex.Index = (*Index)(nil)

func New(cfg Config, log logger.ILogger) (*Index, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	prefix := cfg.CollectionPrefix
	if prefix == "" {
		prefix = "doc_chunks"
	}

	return &Index{
		client: client,
		prefix: prefix,
		policy: retry.DefaultPolicy(),
		log:    log,
		ready:  make(map[string]bool),
	}, nil
}

func (x *Index) Close() error {
	return x.client.Close()
}

func (x *Index) collection(provider string) string {
	return x.prefix + "_" + provider
}

// pointID derives a stable point id so re-upserting a chunk overwrites it.
func pointID(documentID uuid.UUID, chunkIndex int) string {
	return uuid.NewSHA1(documentID, []byte(strconv.Itoa(chunkIndex))).String()
}

func (x *Index) ensureCollection(ctx context.Context, name string, dims int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.ready[name] {
		return nil
	}

	exists, err := x.client.CollectionExists(ctx, name)
	if err != nil {
		return classifyError("qdrant.collection_exists", err)
	}
	if !exists {
		x.log.Info("QDRANT", "Creating collection", map[string]interface{}{"collection": name, "dims": dims})
		err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dims),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		_, err = x.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: name,
			FieldName:      fieldDocumentID,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to index %s on %s: %w", fieldDocumentID, name, err)
		}
	}

	x.ready[name] = true
	return nil
}

func documentFilter(documentID uuid.UUID) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{qdrant.NewMatch(fieldDocumentID, documentID.String())},
	}
}

func (x *Index) Upsert(ctx context.Context, documentID uuid.UUID, provider string, entries []vectorindex.Entry) error {
	if err := vectorindex.ValidateEntries(entries); err != nil {
		return err
	}
	name := x.collection(provider)

	if len(entries) > 0 {
		if err := x.ensureCollection(ctx, name, len(entries[0].Vector)); err != nil {
			return err
		}
	} else {
		exists, err := x.client.CollectionExists(ctx, name)
		if err != nil || !exists {
			return err
		}
	}

	// drop stale points first; a shorter reprocess must not leave trailing chunks behind
	_, err := retry.Do(ctx, x.policy, func(ctx context.Context) (*qdrant.UpdateResult, error) {
		res, err := x.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: name,
			Wait:           qdrant.PtrOf(true),
			Points:         qdrant.NewPointsSelectorFilter(documentFilter(documentID)),
		})
		if err != nil {
			return nil, classifyError("qdrant.delete", err)
		}
		return res, nil
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to clear document %s: %w", documentID, err)
	}
	if len(entries) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(entries))
	for i, e := range entries {
		payload := map[string]any{
			fieldDocumentID: documentID.String(),
			fieldChunkIndex: int64(e.ChunkIndex),
		}
		for k, v := range e.Metadata {
			payload[k] = v
		}
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(documentID, e.ChunkIndex)),
			Vectors: qdrant.NewVectors(e.Vector...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err = retry.Do(ctx, x.policy, func(ctx context.Context) (*qdrant.UpdateResult, error) {
		res, err := x.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: name,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		if err != nil {
			return nil, classifyError("qdrant.upsert", err)
		}
		return res, nil
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to upsert %d points for %s: %w", len(points), documentID, err)
	}
	return nil
}

func (x *Index) Search(ctx context.Context, vector []float32, q vectorindex.Query) ([]vectorindex.Hit, error) {
	if len(q.DocumentIDs) == 0 || q.TopK <= 0 {
		return []vectorindex.Hit{}, nil
	}

	ids := make([]string, len(q.DocumentIDs))
	for i, id := range q.DocumentIDs {
		ids[i] = id.String()
	}

	points, err := retry.Do(ctx, x.policy, func(ctx context.Context) ([]*qdrant.ScoredPoint, error) {
		res, err := x.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: x.collection(q.Provider),
			Query:          qdrant.NewQuery(vector...),
			Filter: &qdrant.Filter{
				Must: []*qdrant.Condition{qdrant.NewMatchKeywords(fieldDocumentID, ids...)},
			},
			Limit:       qdrant.PtrOf(uint64(q.TopK)),
			WithPayload: qdrant.NewWithPayload(true),
		})
		if err != nil {
			if isNotFound(err) {
				return nil, nil
			}
			return nil, classifyError("qdrant.query", err)
		}
		return res, nil
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	hits := make([]vectorindex.Hit, 0, len(points))
	for _, p := range points {
		docID, err := uuid.Parse(p.GetPayload()[fieldDocumentID].GetStringValue())
		if err != nil {
			continue
		}
		hits = append(hits, vectorindex.Hit{
			DocumentID: docID,
			ChunkIndex: int(p.GetPayload()[fieldChunkIndex].GetIntegerValue()),
			Similarity: float64(p.GetScore()),
		})
	}

	vectorindex.SortHits(hits)
	return hits, nil
}

func (x *Index) DeleteDocument(ctx context.Context, documentID uuid.UUID) error {
	collections, err := x.client.ListCollections(ctx)
	if err != nil {
		return classifyError("qdrant.list_collections", err)
	}
	for _, name := range collections {
		if !strings.HasPrefix(name, x.prefix+"_") {
			continue
		}
		_, err := x.client.Delete(ctx, &qdrant.DeletePoints{
			CollectionName: name,
			Wait:           qdrant.PtrOf(true),
			Points:         qdrant.NewPointsSelectorFilter(documentFilter(documentID)),
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s from %s: %w", documentID, name, err)
		}
	}
	return nil
}

// a provider that never indexed anything has no collection yet
func isNotFound(err error) bool {
	if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "doesn't exist")
}

// classifyError maps a gRPC status onto an apperror kind. Only overload and
// timeout codes are retried.
func classifyError(op string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return apperror.Wrap(apperror.KindOf(err), op, err)
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted:
		return apperror.Transient(op, err)
	case codes.NotFound:
		return apperror.Wrap(apperror.KindNotFound, op, err)
	default:
		return apperror.Terminal(op, err)
	}
}
