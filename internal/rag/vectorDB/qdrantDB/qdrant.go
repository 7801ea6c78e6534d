package qdrantDB

import (
	"context"
	"fmt"
	"sync"

	"github.com/akolanti/PDFChat/internal/adapter/utils"
	"github.com/akolanti/PDFChat/internal/config"
	"github.com/akolanti/PDFChat/internal/domain/commonModels"
	"github.com/akolanti/PDFChat/internal/rag/vectorDB"
	"github.com/akolanti/PDFChat/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

var logger *logger_i.Logger
var quadrantInstance *qdrant.Client
var once sync.Once
var initErr error

type ClientHolder struct {
	QObj *qdrant.Client
}

// GetQuadrantClient connects once per process. The client is closed when ctx is cancelled.
func GetQuadrantClient(ctx context.Context, settings config.QdrantSettings) (*ClientHolder, error) {
	once.Do(func() {
		logger = logger_i.NewLogger("Qdrant")
		quadrantInstance, initErr = newClient(settings)
		if initErr == nil {
			go closeQdrant(ctx, quadrantInstance)
		}
	})

	if quadrantInstance == nil {
		return nil, initErr
	}
	return &ClientHolder{QObj: quadrantInstance}, nil
}

func newClient(settings config.QdrantSettings) (*qdrant.Client, error) {
	port := settings.Port
	if port == 0 {
		port = config.QdrantGrpcPort
	}
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     settings.Host,
		Port:     port,
		APIKey:   settings.APIKey,
		UseTLS:   settings.UseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate", "error", err)
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}
	logger.Info("Qdrant client created", "host", settings.Host, "port", port)
	return client, nil
}

func closeQdrant(ctx context.Context, qi *qdrant.Client) {
	<-ctx.Done()
	logger.Info("Shutting down Qdrant")
	if err := qi.Close(); err != nil {
		logger.Error("could not close Qdrant", "error", err)
	}
	logger.Info("Closed Qdrant")
}

func (db *ClientHolder) Name() string {
	return config.VectorBackendQdrant
}

// Build writes every chunk to a fresh collection; the collection is dropped if any step fails.
func (db *ClientHolder) Build(ctx context.Context, chunks []commonModels.Chunk, vectors [][]float32) (vectorDB.Index, error) {
	loggr := logger.WithTrace(ctx, config.TRACE_ID_KEY)
	dim, err := vectorDB.ValidateBuild(chunks, vectors)
	if err != nil {
		return nil, err
	}

	collectionName := config.VectorCollectionName + "_" + utils.GetNewUUID()
	if err := db.createCollection(ctx, collectionName, uint64(dim)); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	for start := 0; start < len(chunks); start += config.QdrantUpsertBatchSize {
		end := min(start+config.QdrantUpsertBatchSize, len(chunks))
		if err := db.upsertBatch(ctx, collectionName, chunks[start:end], vectors[start:end]); err != nil {
			loggr.Error("Upsert failed, dropping collection", "collection", collectionName, "error", err)
			if dropErr := db.QObj.DeleteCollection(context.WithoutCancel(ctx), collectionName); dropErr != nil {
				loggr.Error("could not drop collection", "collection", collectionName, "error", dropErr)
			}
			return nil, err
		}
	}

	loggr.Info("Built qdrant index", "collection", collectionName, "chunks", len(chunks), "dimension", dim)
	return &index{client: db.QObj, collection: collectionName, dim: dim, size: len(chunks)}, nil
}

func (db *ClientHolder) createCollection(ctx context.Context, collectionName string, dimension uint64) error {
	return db.QObj.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func (db *ClientHolder) upsertBatch(ctx context.Context, collectionName string, chunks []commonModels.Chunk, vectors [][]float32) error {
	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			// chunk ids are uuids, which qdrant accepts as point ids
			Id:      qdrant.NewID(chunk.Id),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(map[string]any{
				"content":     chunk.Text,
				"chunk_order": chunk.Index,
				"offset":      chunk.Offset,
			}),
		}
	}

	_, err := db.QObj.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

type index struct {
	mu         sync.RWMutex
	client     *qdrant.Client
	collection string
	dim        int
	size       int
	closed     bool
}

func (i *index) Len() int       { return i.size }
func (i *index) Dimension() int { return i.dim }

func (i *index) Query(ctx context.Context, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, vectorDB.ErrIndexClosed
	}
	if err := vectorDB.CheckQuery(vector, i.dim); err != nil {
		return nil, err
	}

	limit := vectorDB.ClampK(k, config.RetrievalTopK, i.size)
	result, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error querying Qdrant", "error", err)
		return nil, err
	}

	matches := make([]commonModels.ScoredChunk, 0, len(result))
	for _, hit := range result {
		matches = append(matches, commonModels.ScoredChunk{
			Chunk: commonModels.Chunk{
				Id:     hit.GetId().GetUuid(),
				Text:   hit.Payload["content"].GetStringValue(),
				Index:  int(hit.Payload["chunk_order"].GetIntegerValue()),
				Offset: int(hit.Payload["offset"].GetIntegerValue()),
			},
			Score: hit.Score,
		})
	}
	return matches, nil
}

func (i *index) Close(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.client.DeleteCollection(ctx, i.collection)
}
