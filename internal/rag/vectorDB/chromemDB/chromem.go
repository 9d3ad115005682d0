package chromemDB

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strconv"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"github.com/philippgille/chromem-go"
)

// vectors are always computed by our own embedder; chromem must never embed on its own
var errNoEmbedding = errors.New("chromem collection has no embedding function, vectors are supplied by the pipeline")

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errNoEmbedding
}

type Store struct {
	db     *chromem.DB
	logger *logger_i.Logger
}

// New opens (or creates) the persistent store under cfg.PersistDir.
func New(cfg config.VectorStoreConfig) (*Store, error) {
	db, err := chromem.NewPersistentDB(cfg.PersistDir, cfg.Compress)
	if err != nil {
		return nil, fmt.Errorf("opening chromem db at %s: %w", cfg.PersistDir, err)
	}
	logger := logger_i.NewLogger("chromem")
	logger.Info("Vector store opened", "path", cfg.PersistDir, "collections", len(db.ListCollections()))
	return &Store{db: db, logger: logger}, nil
}

// NewInMemory keeps everything in process memory.
func NewInMemory() *Store {
	return &Store{db: chromem.NewDB(), logger: logger_i.NewLogger("chromem")}
}

func (s *Store) ResetCollection(ctx context.Context, name string, spec vectorDB.CollectionSpec) error {
	if name == "" {
		return errors.New("empty collection name")
	}
	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("dropping collection %s: %w", name, err)
	}
	meta := map[string]string{
		"embedding_model": spec.EmbeddingModel,
		"dimension":       strconv.Itoa(spec.Dimension),
	}
	if _, err := s.db.CreateCollection(name, meta, noEmbedding); err != nil {
		return fmt.Errorf("creating collection %s: %w", name, err)
	}
	s.logger.WithTrace(ctx, config.TRACE_ID_KEY).Info("Collection reset", "collection", name, "dimension", spec.Dimension)
	return nil
}

func (s *Store) collection(name string) (*chromem.Collection, error) {
	c := s.db.GetCollection(name, noEmbedding)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", vectorDB.ErrCollectionNotFound, name)
	}
	return c, nil
}

func (s *Store) UpsertBatch(ctx context.Context, name string, chunks []commonModels.DocChunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("mismatch: got %d chunks but %d vectors", len(chunks), len(vectors))
	}
	c, err := s.collection(name)
	if err != nil {
		return err
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:        chunk.ChunkId,
			Metadata:  vectorDB.ChunkMetadata(chunk),
			Embedding: vectors[i],
			Content:   chunk.Chunk,
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem upsert failed: %w", err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, name string, vector []float32, k int) ([]commonModels.ScoredChunk, error) {
	c, err := s.collection(name)
	if err != nil {
		return nil, err
	}
	// chromem rejects a result count above the collection size
	n := min(k, c.Count())
	if n <= 0 {
		return nil, nil
	}

	results, err := c.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		s.logger.WithTrace(ctx, config.TRACE_ID_KEY).Error("Error querying chromem", "error", err)
		return nil, fmt.Errorf("chromem query failed: %w", err)
	}

	scored := make([]commonModels.ScoredChunk, 0, len(results))
	for _, r := range results {
		scored = append(scored, commonModels.ScoredChunk{
			Chunk: vectorDB.ChunkFromMetadata(r.ID, r.Content, r.Metadata),
			Score: r.Similarity,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored, nil
}

func (s *Store) Count(_ context.Context, name string) (int, error) {
	c, err := s.collection(name)
	if err != nil {
		return 0, err
	}
	return c.Count(), nil
}

func (s *Store) GetByID(ctx context.Context, name string, id string) (vectorDB.Record, error) {
	c, err := s.collection(name)
	if err != nil {
		return vectorDB.Record{}, err
	}
	doc, err := c.GetByID(ctx, id)
	if err != nil {
		return vectorDB.Record{}, fmt.Errorf("%w: %s: %w", vectorDB.ErrRecordNotFound, id, err)
	}
	return vectorDB.Record{
		Chunk:     vectorDB.ChunkFromMetadata(doc.ID, doc.Content, doc.Metadata),
		Embedding: doc.Embedding,
	}, nil
}

// Close is a no-op: the persistent DB writes every document as it is added.
func (s *Store) Close() error {
	return nil
}
