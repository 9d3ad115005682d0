package jobModel

import (
	"context"
	"time"

	"github.com/akolanti/cyberrag/internal/domain/commonModels"
)

type JobStatus string
type InternalStatus string

type JobType string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	JobStatusError    JobStatus = "Error"

	UserQueryInit    InternalStatus = "Init"
	RetrievalCall    InternalStatus = "Retrieval"
	PromptRender     InternalStatus = "Prompt"
	LLMCall          InternalStatus = "LLM"
	VectorDBCall     InternalStatus = "VectorDB"
	EmbeddingAPICall InternalStatus = "EmbeddingAPI"
	RedisCall        InternalStatus = "Redis"

	IngestInit       InternalStatus = "IngestInit"
	IngestExtracting InternalStatus = "IngestExtracting"
	IngestEmbedding  InternalStatus = "IngestEmbedding"
	IngestPersisting InternalStatus = "IngestPersisting"
	Error            InternalStatus = "Error"

	Complete InternalStatus = "Complete"

	JobTypeIngest JobType = "Ingest"
)

type Job struct {
	Id          string         `json:"id"`
	TraceId     string         `json:"trace_id"`
	JobType     JobType        `json:"job_type"`
	JobPayload  JobPayload     `json:"job_payload"`
	Error       JobError       `json:"error,omitempty"`
	CreatedTime time.Time      `json:"created_time"`
	EndTime     time.Time      `json:"end_time,omitempty"`
	Status      JobStatus      `json:"status"`
	CurrentStep InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type JobPayload struct {
	DocumentIds []string      `json:"document_ids,omitempty"` //empty means every configured document
	Report      *IngestReport `json:"report,omitempty"`
}

type DocumentReport struct {
	DocumentId string               `json:"document_id" yaml:"document_id"`
	Type       commonModels.DocType `json:"type" yaml:"type"`
	Path       string               `json:"path" yaml:"path"`
	Segments   int                  `json:"segments" yaml:"segments"`
	Chunks     int                  `json:"chunks" yaml:"chunks"`
}

type IngestReport struct {
	Collection     string           `json:"collection" yaml:"collection"`
	EmbeddingModel string           `json:"embedding_model" yaml:"embedding_model"`
	Dimension      int              `json:"dimension" yaml:"dimension"`
	TotalChunks    int              `json:"total_chunks" yaml:"total_chunks"`
	Documents      []DocumentReport `json:"documents" yaml:"documents"`
	Duration       time.Duration    `json:"duration" yaml:"duration"`
	BuiltAt        time.Time        `json:"built_at" yaml:"built_at"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}

// MessageStore owns the ordered conversation of every chat session.
type MessageStore interface {
	InitNewChat(ctx context.Context, id string) error
	ValidateChatId(ctx context.Context, id string) bool
	AppendTurn(ctx context.Context, id string, turn commonModels.ConversationTurn) error
	// GetMessageHistory returns the last limit turns oldest first, limit <= 0 returns all.
	GetMessageHistory(ctx context.Context, chatId string, limit int) ([]commonModels.ConversationTurn, error)
	DeleteChat(ctx context.Context, id string) error
}
