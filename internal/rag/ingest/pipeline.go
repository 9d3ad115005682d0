package ingest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/internal/rag/chunk"
	"github.com/akolanti/cyberrag/internal/rag/embedding"
	"github.com/akolanti/cyberrag/internal/rag/extract"
	"github.com/akolanti/cyberrag/internal/rag/manifest"
	"github.com/akolanti/cyberrag/internal/rag/vectorDB"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

// Progress is told which stage a run has reached.
type Progress func(step jobModel.InternalStatus)

// Pipeline rebuilds the knowledge base: extract, chunk, embed, persist.
type Pipeline struct {
	dataset     config.DatasetConfig
	vectorStore config.VectorStoreConfig
	batchSize   int
	extractOpts extract.Options
	chunker     *chunk.Chunker
	embedder    embedding.Embedder
	store       vectorDB.Store
	extractors  map[commonModels.DocType]extract.Extractor
	logger      *logger_i.Logger
}

func NewPipeline(cfg *config.Config, embedder embedding.Embedder, store vectorDB.Store) (*Pipeline, error) {
	opts, err := extract.OptionsFromConfig(cfg.Extraction)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		dataset:     cfg.Dataset,
		vectorStore: cfg.VectorStore,
		batchSize:   cfg.Embedding.BatchSize,
		extractOpts: opts,
		chunker:     chunk.New(cfg.Chunking),
		embedder:    embedder,
		store:       store,
		extractors:  map[commonModels.DocType]extract.Extractor{},
		logger:      logger_i.NewLogger("Document Ingestion"),
	}, nil
}

// UseExtractor replaces the extractor of one document type.
func (p *Pipeline) UseExtractor(docType commonModels.DocType, e extract.Extractor) {
	p.extractors[docType] = e
}

// Documents resolves the configured documents, restricted to only when it is not empty.
func (p *Pipeline) Documents(only []string) ([]commonModels.Document, error) {
	wanted := make(map[string]bool, len(only))
	for _, id := range only {
		wanted[id] = true
	}

	var docs []commonModels.Document
	for _, d := range p.dataset.Documents {
		if len(wanted) > 0 && !wanted[d.ID] {
			continue
		}
		delete(wanted, d.ID)
		docs = append(docs, commonModels.Document{
			Id:    d.ID,
			Path:  p.dataset.DocumentPath(d),
			Title: d.Title,
			Type:  commonModels.DocType(d.Type),
		})
	}
	if len(wanted) > 0 {
		unknown := slices.Sorted(maps.Keys(wanted))
		return nil, fmt.Errorf("unknown document ids: %s", strings.Join(unknown, ", "))
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents configured")
	}
	return docs, nil
}

// Run rebuilds the collection from scratch. Every document is extracted and embedded before the
// collection is touched, so a run failing up to then leaves the previous index in place. Once the
// collection is reset the manifest is gone until the new one is written, and a run failing while
// persisting leaves ErrIndexNotBuilt behind.
func (p *Pipeline) Run(ctx context.Context, only []string, progress Progress) (jobModel.IngestReport, error) {
	start := time.Now()
	log := p.logger.WithTrace(ctx, config.TRACE_ID_KEY)
	if progress == nil {
		progress = func(jobModel.InternalStatus) {}
	}
	collection := p.vectorStore.Collection

	docs, err := p.Documents(only)
	if err != nil {
		return jobModel.IngestReport{}, err
	}

	progress(jobModel.IngestExtracting)
	var allChunks []commonModels.DocChunk
	reports := make([]jobModel.DocumentReport, 0, len(docs))
	for _, doc := range docs {
		chunks, report, err := p.chunkDocument(ctx, doc)
		if err != nil {
			log.Error("Error processing document", "document", doc.Id, "error", err)
			return jobModel.IngestReport{}, err
		}
		log.Info("Document chunked", "document", doc.Id, "segments", report.Segments, "chunks", report.Chunks)
		allChunks = append(allChunks, chunks...)
		reports = append(reports, report)
	}

	progress(jobModel.IngestEmbedding)
	model := p.embedder.ModelName()
	texts := make([]string, len(allChunks))
	for i := range allChunks {
		allChunks[i].EmbeddingModel = model
		texts[i] = allChunks[i].Chunk
	}
	vectors, err := EmbedAll(ctx, texts, p.embedder, p.batchSize)
	if err != nil {
		return jobModel.IngestReport{}, err
	}
	dimension, err := ValidateVectors(vectors, len(allChunks))
	if err != nil {
		return jobModel.IngestReport{}, fmt.Errorf("validating embeddings: %w", err)
	}

	progress(jobModel.IngestPersisting)
	if err := manifest.Remove(p.vectorStore.ManifestPath()); err != nil {
		return jobModel.IngestReport{}, err
	}
	if err := p.store.ResetCollection(ctx, collection, vectorDB.CollectionSpec{Dimension: dimension, EmbeddingModel: model}); err != nil {
		return jobModel.IngestReport{}, err
	}
	if err := BatchIngest(ctx, p.store, collection, allChunks, vectors, p.batchSize); err != nil {
		return jobModel.IngestReport{}, err
	}
	persisted, err := p.store.Count(ctx, collection)
	if err != nil {
		return jobModel.IngestReport{}, fmt.Errorf("counting persisted chunks: %w", err)
	}
	if persisted != len(allChunks) {
		return jobModel.IngestReport{}, fmt.Errorf("persisted %d chunks, expected %d", persisted, len(allChunks))
	}

	report := jobModel.IngestReport{
		Collection:     collection,
		EmbeddingModel: model,
		Dimension:      dimension,
		TotalChunks:    len(allChunks),
		Documents:      reports,
		Duration:       time.Since(start),
		BuiltAt:        time.Now().UTC(),
	}
	if err := manifest.Write(p.vectorStore.ManifestPath(), manifest.New(report)); err != nil {
		return jobModel.IngestReport{}, err
	}
	log.Info("Knowledge base rebuilt", "chunks", report.TotalChunks, "dimension", dimension, "duration", report.Duration)
	return report, nil
}

func (p *Pipeline) chunkDocument(ctx context.Context, doc commonModels.Document) ([]commonModels.DocChunk, jobModel.DocumentReport, error) {
	report := jobModel.DocumentReport{DocumentId: doc.Id, Type: doc.Type, Path: doc.Path}

	extractor, ok := p.extractors[doc.Type]
	if !ok {
		var err error
		extractor, err = extract.ForType(doc.Type, p.extractOpts)
		if err != nil {
			return nil, report, err
		}
	}

	segments, err := extract.Collect(extractor.Extract(ctx, doc))
	if err != nil {
		return nil, report, fmt.Errorf("extracting %s: %w", doc.Id, err)
	}
	chunks, err := p.chunker.Document(doc, segments)
	if err != nil {
		return nil, report, err
	}
	if len(chunks) == 0 {
		return nil, report, fmt.Errorf("%w: %s produced no chunks", commonModels.ErrNoContent, doc.Id)
	}
	report.Segments = len(segments)
	report.Chunks = len(chunks)
	return chunks, report, nil
}
