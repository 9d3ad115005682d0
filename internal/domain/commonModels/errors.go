package commonModels

import "errors"

var (
	// ErrNoContent marks a document that produced nothing: unreadable, corrupt or empty.
	ErrNoContent = errors.New("no content extracted")
	// ErrIndexNotBuilt means the ingestion pipeline has not been run yet.
	ErrIndexNotBuilt          = errors.New("knowledge base has not been built, run ingest first")
	ErrEmbeddingModelMismatch = errors.New("query embedding model differs from the ingestion model")
	ErrEmptyQuestion          = errors.New("please enter a question")
	ErrProviderQuota          = errors.New("provider quota exhausted")
	ErrProviderAuth           = errors.New("provider rejected the credentials")
	ErrIngestInProgress       = errors.New("an ingestion run is already queued or running")
	ErrSessionNotFound        = errors.New("session not found")
)
