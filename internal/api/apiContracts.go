package api

import "time"

type JobExternalStatus string

const (
	JobStatusError JobExternalStatus = "Error"
)

// requests---------------------

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
	K         int    `json:"k,omitempty"`
	Language  string `json:"language,omitempty"` //auto, en, th or the UI labels
}

type RetrieveRequest struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

type IngestRequest struct {
	DocumentIds []string `json:"document_ids,omitempty"`
}

// responses---------------------

type Source struct {
	DocumentId string  `json:"source_doc_id"`
	Source     string  `json:"source"`
	Page       int     `json:"page"`
	Section    string  `json:"section,omitempty"`
	Score      float32 `json:"score"`
	Excerpt    string  `json:"excerpt"`
}

type ChatResponse struct {
	SessionID   string   `json:"session_id"`
	Answer      string   `json:"answer"`
	HTML        string   `json:"html"`
	Sources     []Source `json:"sources"`
	SourcesText string   `json:"sources_text"`
	Debug       string   `json:"debug"`
}

type RetrieveResponse struct {
	Query            string   `json:"query"`
	K                int      `json:"k"`
	DetectedLanguage string   `json:"detected_language"`
	ExpandedQueries  []string `json:"expanded_queries,omitempty"`
	SearchDepth      int      `json:"search_depth"`
	Results          []Source `json:"results"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
}

type Turn struct {
	User      string    `json:"user"`
	Assistant string    `json:"assistant"`
	CreatedAt time.Time `json:"created_at"`
}

type HistoryResponse struct {
	SessionID string `json:"session_id"`
	Turns     []Turn `json:"turns"`
}

type InitJobResponse struct {
	Id        string `json:"id"`
	StatusURL string `json:"status_url"`
}

type JobOutgoingError struct {
	Code    int    `json:"code" example:"422"`
	Message string `json:"message" example:"no content extracted"`
}

type DocumentReport struct {
	DocumentId string `json:"document_id"`
	Type       string `json:"type"`
	Segments   int    `json:"segments"`
	Chunks     int    `json:"chunks"`
}

type IngestReport struct {
	Collection     string           `json:"collection"`
	EmbeddingModel string           `json:"embedding_model"`
	Dimension      int              `json:"dimension"`
	TotalChunks    int              `json:"total_chunks"`
	Documents      []DocumentReport `json:"documents"`
	DurationMs     int64            `json:"duration_ms"`
}

type JobResponse struct {
	Id          string            `json:"id"`
	Status      string            `json:"status"`
	CurrentStep string            `json:"current_step"`
	DocumentIds []string          `json:"document_ids,omitempty"`
	Report      *IngestReport     `json:"report,omitempty"`
	Error       *JobOutgoingError `json:"error,omitempty"`
	StartTime   time.Time         `json:"start_time"`
	EndTime     time.Time         `json:"end_time,omitempty"`
}

type ErrorBody struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"Please enter a question."`
}

// ErrorResponse is the envelope of every error body.
type ErrorResponse struct {
	Error   ErrorBody `json:"error"`
	TraceId string    `json:"trace_id,omitempty"`
}

type HealthResponse struct {
	Status         string `json:"status"`
	IndexBuilt     bool   `json:"index_built"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
	Chunks         int    `json:"chunks"`
	IngestRunning  bool   `json:"ingest_running"`
}
