package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/akolanti/cyberrag/internal/adapter"
	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
)

const maxBodyBytes = 1 << 20

func (h *Handler) writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone, only logging is left
		h.logger.Error("Error encoding response", "error", err)
	}
}

// WriteErrorResponse writes the api.ErrorResponse envelope.
func WriteErrorResponse(w http.ResponseWriter, r *http.Request, httpCode int, message string) {
	trace := traceId(r.Context())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	_ = json.NewEncoder(w).Encode(adapter.BadRequest(trace, message, httpCode))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, message := statusForError(err)
	log := h.logger.WithTrace(r.Context(), config.TRACE_ID_KEY)
	if code >= http.StatusInternalServerError {
		log.Error("Request failed", "path", r.URL.Path, "status", code, "error", err)
	} else {
		log.Warn("Request rejected", "path", r.URL.Path, "status", code, "error", err)
	}
	WriteErrorResponse(w, r, code, message)
}

// statusForError maps the error sentinels onto HTTP statuses and user-facing messages.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, commonModels.ErrEmptyQuestion):
		return http.StatusBadRequest, "Please enter a question."
	case errors.Is(err, commonModels.ErrSessionNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, commonModels.ErrIndexNotBuilt),
		errors.Is(err, commonModels.ErrEmbeddingModelMismatch),
		errors.Is(err, commonModels.ErrIngestInProgress):
		return http.StatusConflict, err.Error()
	case errors.Is(err, commonModels.ErrProviderQuota):
		return http.StatusTooManyRequests, err.Error()
	case errors.Is(err, commonModels.ErrProviderAuth):
		return http.StatusBadGateway, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "An error occurred: the request timed out"
	default:
		return http.StatusInternalServerError, fmt.Sprintf("An error occurred: %v", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()
	if err := json.NewDecoder(body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func traceId(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateContext(ctx context.Context) bool {
	return ctx.Err() == nil
}
