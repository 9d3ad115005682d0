package adapter

import (
	"fmt"

	"github.com/akolanti/cyberrag/internal/api"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/internal/rag"
)

const excerptRunes = 300

func ToInitJobResponse(id string) api.InitJobResponse {
	return api.InitJobResponse{
		Id:        id,
		StatusURL: fmt.Sprintf("/api/ingest/%s", id),
	}
}

func ToAPIResponse(job jobModel.Job) api.JobResponse {
	var errorPtr *api.JobOutgoingError
	if job.Error.Message != "" || job.Error.Code != 0 {
		errorPtr = &api.JobOutgoingError{
			Code:    job.Error.Code,
			Message: job.Error.Message,
		}
	}

	return api.JobResponse{
		Id:          job.Id,
		Status:      string(job.Status),
		CurrentStep: string(job.CurrentStep),
		DocumentIds: job.JobPayload.DocumentIds,
		Report:      toIngestReport(job.JobPayload.Report),
		Error:       errorPtr,
		StartTime:   job.CreatedTime,
		EndTime:     job.EndTime,
	}
}

func toIngestReport(r *jobModel.IngestReport) *api.IngestReport {
	if r == nil {
		return nil
	}
	docs := make([]api.DocumentReport, 0, len(r.Documents))
	for _, d := range r.Documents {
		docs = append(docs, api.DocumentReport{
			DocumentId: d.DocumentId,
			Type:       string(d.Type),
			Segments:   d.Segments,
			Chunks:     d.Chunks,
		})
	}
	return &api.IngestReport{
		Collection:     r.Collection,
		EmbeddingModel: r.EmbeddingModel,
		Dimension:      r.Dimension,
		TotalChunks:    r.TotalChunks,
		Documents:      docs,
		DurationMs:     r.Duration.Milliseconds(),
	}
}

func ToSources(chunks []commonModels.ScoredChunk) []api.Source {
	out := make([]api.Source, 0, len(chunks))
	for _, c := range chunks {
		excerpt := []rune(c.Chunk.Chunk)
		if len(excerpt) > excerptRunes {
			excerpt = excerpt[:excerptRunes]
		}
		out = append(out, api.Source{
			DocumentId: c.Chunk.DocumentId,
			Source:     c.Chunk.Source,
			Page:       c.Chunk.Position,
			Section:    c.Chunk.Section,
			Score:      c.Score,
			Excerpt:    string(excerpt),
		})
	}
	return out
}

func ToChatResponse(answer commonModels.Answer) api.ChatResponse {
	return api.ChatResponse{
		SessionID:   answer.SessionId,
		Answer:      answer.Text,
		HTML:        answer.HTML,
		Sources:     ToSources(answer.Sources),
		SourcesText: rag.SourcesText(answer.Sources),
		Debug:       answer.Debug,
	}
}

func ToRetrieveResponse(result commonModels.RetrievalResult) api.RetrieveResponse {
	return api.RetrieveResponse{
		Query:            result.Query,
		K:                result.K,
		DetectedLanguage: string(result.DetectedLanguage),
		ExpandedQueries:  result.ExpandedQueries,
		SearchDepth:      result.SearchDepth,
		Results:          ToSources(result.Chunks),
	}
}

func ToHistoryResponse(sessionId string, turns []commonModels.ConversationTurn) api.HistoryResponse {
	out := make([]api.Turn, 0, len(turns))
	for _, t := range turns {
		out = append(out, api.Turn{User: t.User, Assistant: t.Assistant, CreatedAt: t.CreatedAt})
	}
	return api.HistoryResponse{SessionID: sessionId, Turns: out}
}

func BadRequest(traceId string, message string, code int) api.ErrorResponse {
	return api.ErrorResponse{
		Error:   api.ErrorBody{Code: code, Message: message},
		TraceId: traceId,
	}
}
