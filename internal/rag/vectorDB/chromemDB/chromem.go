package chromemDB

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"

	"github.com/akolanti/PDFChat/internal/adapter/utils"
	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag/vectorDB"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	"github.com/philippgille/chromem-go"
)

const (
	metaChunkOrder = "chunk_order"
	metaOffset     = "offset"
)

type builder struct {
	logger *logger_i.Logger
}

// NewBuilder builds in-process indexes, one chromem DB per build.
func NewBuilder() vectorDB.Builder {
	return &builder{logger: logger_i.NewLogger("chromem")}
}

func (b *builder) Name() string {
	return config.VectorBackendMemory
}

func (b *builder) Build(ctx context.Context, chunks []commonModels.Chunk, vectors [][]float32) (vectorDB.Index, error) {
	log := b.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	dim, err := vectorDB.ValidateBuild(chunks, vectors)
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	name := config.VectorCollectionName + "_" + utils.GetNewUUID()
	collection, err := db.CreateCollection(name, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		// chromem normalises in place, keep the caller's slice intact
		embedding := make([]float32, len(vectors[i]))
		copy(embedding, vectors[i])
		docs[i] = chromem.Document{
			ID:      chunk.Id,
			Content: chunk.Text,
			Metadata: map[string]string{
				metaChunkOrder: strconv.Itoa(chunk.Index),
				metaOffset:     strconv.Itoa(chunk.Offset),
			},
			Embedding: embedding,
		}
	}

	if err := collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		_ = db.DeleteCollection(name)
		return nil, fmt.Errorf("failed to add documents: %w", err)
	}

	log.Info("Built in-memory index", "collection", name, "chunks", len(chunks), "dimension", dim)
	return &index{db: db, collection: collection, name: name, dim: dim, size: len(chunks)}, nil
}

type index struct {
	mu         sync.RWMutex
	db         *chromem.DB
	collection *chromem.Collection
	name       string
	dim        int
	size       int
}

func (i *index) Len() int       { return i.size }
func (i *index) Dimension() int { return i.dim }

func (i *index) Query(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.collection == nil {
		return nil, vectorDB.ErrIndexClosed
	}
	if err := vectorDB.CheckQuery(vector, i.dim); err != nil {
		return nil, err
	}

	query := make([]float32, len(vector))
	copy(query, vector)
	n := vectorDB.ClampK(k, config.RetrievalTopK, i.collection.Count())
	results, err := i.collection.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}

	out := make([]commonModels.ScoredChunk, 0, len(results))
	for _, r := range results {
		order, _ := strconv.Atoi(r.Metadata[metaChunkOrder])
		offset, _ := strconv.Atoi(r.Metadata[metaOffset])
		out = append(out, commonModels.ScoredChunk{
			Chunk: commonModels.Chunk{Id: r.ID, Text: r.Content, Index: order, Offset: offset},
			Score: r.Similarity,
		})
	}
	return out, nil
}

func (i *index) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.collection == nil {
		return nil
	}
	i.collection = nil
	return i.db.DeleteCollection(i.name)
}
