package handlers

import (
	"net/http"
	"strings"

	"github.com/akolanti/cyberrag/internal/adapter"
	"github.com/akolanti/cyberrag/internal/adapter/utils"
	"github.com/akolanti/cyberrag/internal/api"
	"github.com/akolanti/cyberrag/internal/config"
)

// PostIngestHandler queues a rebuild of the knowledge base and answers 202 with the job id.
func (h *Handler) PostIngestHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.IngestRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Bad Request")
		return
	}

	if unknown := h.unknownDocuments(req.DocumentIds); len(unknown) > 0 {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Unknown document ids: "+strings.Join(unknown, ", "))
		return
	}

	newJob, err := h.jobs.SubmitIngest(r.Context(), req.DocumentIds)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY).Info("Ingest job accepted", "jobId", newJob.Id)
	h.writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.Id))
}

func (h *Handler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := h.jobs.GetJob(r.Context(), idString)
	if !isFound {
		WriteErrorResponse(w, r, http.StatusNotFound, "Job not found")
		return
	}
	h.writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

// unknownDocuments lists the requested ids that are not in the configured dataset.
func (h *Handler) unknownDocuments(ids []string) []string {
	var unknown []string
	for _, id := range ids {
		if !h.documentIds[id] {
			unknown = append(unknown, id)
		}
	}
	return unknown
}
