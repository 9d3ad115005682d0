package vectorDB

import (
	"context"
	"errors"
	"strconv"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrRecordNotFound     = errors.New("record not found")
)

// CollectionSpec describes the vectors a collection holds.
type CollectionSpec struct {
	Dimension      int
	EmbeddingModel string
}

type Record struct {
	Chunk     commonModels.DocChunk
	Embedding []float32
}

// Store is the persistence contract of the index. Search results come back by descending similarity.
type Store interface {
	// ResetCollection drops the collection if present and creates it empty. Safe to repeat.
	ResetCollection(ctx context.Context, name string, spec CollectionSpec) error
	UpsertBatch(ctx context.Context, name string, chunks []commonModels.DocChunk, vectors [][]float32) error
	Search(ctx context.Context, name string, vector []float32, k int) ([]commonModels.ScoredChunk, error)
	Count(ctx context.Context, name string) (int, error)
	GetByID(ctx context.Context, name string, id string) (Record, error)
	Close() error
}

const (
	fieldDocumentId     = "source_doc_id"
	fieldDocumentType   = "doc_type"
	fieldSource         = "source"
	fieldTitle          = "doc_title"
	fieldPosition       = "page"
	fieldSection        = "section"
	fieldOrdinal        = "chunk_order"
	fieldEmbeddingModel = "embedding_model"
)

// ChunkMetadata flattens the chunk attributes stored next to each vector.
func ChunkMetadata(c commonModels.DocChunk) map[string]string {
	return map[string]string{
		fieldDocumentId:     c.DocumentId,
		fieldDocumentType:   string(c.DocumentType),
		fieldSource:         c.Source,
		fieldTitle:          c.Title,
		fieldPosition:       strconv.Itoa(c.Position),
		fieldSection:        c.Section,
		fieldOrdinal:        strconv.Itoa(c.Ordinal),
		fieldEmbeddingModel: c.EmbeddingModel,
	}
}

// ChunkFromMetadata is the inverse of ChunkMetadata. Unparsable numbers read as zero.
func ChunkFromMetadata(id, content string, m map[string]string) commonModels.DocChunk {
	position, _ := strconv.Atoi(m[fieldPosition])
	ordinal, _ := strconv.Atoi(m[fieldOrdinal])
	return commonModels.DocChunk{
		ChunkId:        id,
		DocumentId:     m[fieldDocumentId],
		DocumentType:   commonModels.DocType(m[fieldDocumentType]),
		Source:         m[fieldSource],
		Title:          m[fieldTitle],
		Position:       position,
		Section:        m[fieldSection],
		Ordinal:        ordinal,
		Chunk:          content,
		EmbeddingModel: m[fieldEmbeddingModel],
	}
}
