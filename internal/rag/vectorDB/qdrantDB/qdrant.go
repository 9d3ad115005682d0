package qdrantDB

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"github.com/qdrant/go-client/qdrant"
)

const payloadContent = "content"

type Store struct {
	client *qdrant.Client
	logger *logger_i.Logger
}

func New(cfg config.QdrantConfig) (*Store, error) {
	logger := logger_i.NewLogger("Qdrant")
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		APIKey:   cfg.APIKey,
		UseTLS:   cfg.UseTLS,
		PoolSize: uint(config.QdrantPoolSize),
	})
	if err != nil {
		logger.Error("could not instantiate: ", "error:", err)
		return nil, fmt.Errorf("connecting to qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	logger.Info("Qdrant client created", "host", cfg.Host, "port", cfg.Port)
	return &Store{client: client, logger: logger}, nil
}

func (db *Store) ResetCollection(ctx context.Context, name string, spec vectorDB.CollectionSpec) error {
	if name == "" {
		return errors.New("empty collection name")
	}
	if spec.Dimension <= 0 {
		return fmt.Errorf("collection %s needs a positive dimension", name)
	}

	exists, err := db.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", name, err)
	}
	if exists {
		if err := db.client.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("dropping collection %s: %w", name, err)
		}
	}

	err = db.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(spec.Dimension),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	db.logger.WithTrace(ctx, config.TRACE_ID_KEY).Info("Collection reset", "collection", name, "model", spec.EmbeddingModel)
	return nil
}

func (db *Store) UpsertBatch(ctx context.Context, name string, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	qdrantPoints := make([]*qdrant.PointStruct, len(chunks))
	for i, chunk := range chunks {
		qdrantPoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(chunk.ChunkId),
			Vectors: qdrant.NewVectors(vectors[i]...),
			Payload: qdrant.NewValueMap(toPayload(chunk)),
		}
	}

	_, err := db.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         qdrantPoints,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

func (db *Store) Search(ctx context.Context, name string, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	if k <= 0 {
		return nil, nil
	}
	result, err := db.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: name,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		db.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error querying Qdrant: ", "error:", err)
		return nil, fmt.Errorf("qdrant query failed: %w", err)
	}

	scored := make([]commonModels.ScoredChunk, 0, len(result))
	for _, hit := range result {
		scored = append(scored, commonModels.ScoredChunk{
			Chunk: fromPayload(hit.GetId().GetUuid(), hit.GetPayload()),
			Score: hit.GetScore(),
		})
	}
	return scored, nil
}

func (db *Store) Count(ctx context.Context, name string) (int, error) {
	n, err := db.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant count failed: %w", err)
	}
	return int(n), nil
}

func (db *Store) GetByID(ctx context.Context, name string, id string) (vectorDB.Record, error) {
	points, err := db.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: name,
		Ids:            []*qdrant.PointId{qdrant.NewID(id)},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return vectorDB.Record{}, fmt.Errorf("qdrant get failed: %w", err)
	}
	if len(points) == 0 {
		return vectorDB.Record{}, fmt.Errorf("%w: %s", vectorDB.ErrRecordNotFound, id)
	}
	p := points[0]
	return vectorDB.Record{
		Chunk:     fromPayload(id, p.GetPayload()),
		Embedding: p.GetVectors().GetVector().GetData(),
	}, nil
}

func (db *Store) Close() error {
	db.logger.Info("Shutting down Qdrant")
	return db.client.Close()
}

func toPayload(chunk commonModels.DocChunk) map[string]any {
	payload := map[string]any{payloadContent: chunk.Chunk}
	for k, v := range vectorDB.ChunkMetadata(chunk) {
		payload[k] = v
	}
	return payload
}

func fromPayload(id string, payload map[string]*qdrant.Value) commonModels.DocChunk {
	fields := make(map[string]string, len(payload))
	for k, v := range payload {
		fields[k] = v.GetStringValue()
	}
	return vectorDB.ChunkFromMetadata(id, fields[payloadContent], fields)
}
