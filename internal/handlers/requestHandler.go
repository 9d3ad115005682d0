package handlers

import (
	"context"
	_ "embed"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/akolanti/cyberrag/internal/adapter"
	"github.com/akolanti/cyberrag/internal/adapter/utils"
	"github.com/akolanti/cyberrag/internal/api"
	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/job"
	"github.com/akolanti/cyberrag/internal/rag/manifest"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

//go:embed ui/index.html
var indexHTML []byte

// ChatService is what the HTTP layer needs from rag.Service.
type ChatService interface {
	Ask(ctx context.Context, q commonModels.Query) (commonModels.Answer, error)
	Retrieve(ctx context.Context, query string, k int) (commonModels.RetrievalResult, error)
	NewSession(ctx context.Context) (string, error)
	ResetSession(ctx context.Context, sessionId string) error
	History(ctx context.Context, sessionId string) ([]commonModels.ConversationTurn, error)
	ClampK(k int) int
}

type Handler struct {
	chat         ChatService
	jobs         *job.Service
	manifestPath string
	documentIds  map[string]bool
	chatTimeout  time.Duration
	logger       *logger_i.Logger
}

func New(chat ChatService, jobs *job.Service, cfg *config.Config) *Handler {
	documentIds := make(map[string]bool, len(cfg.Dataset.Documents))
	for _, d := range cfg.Dataset.Documents {
		documentIds[d.ID] = true
	}
	return &Handler{
		chat:         chat,
		jobs:         jobs,
		manifestPath: cfg.VectorStore.ManifestPath(),
		documentIds:  documentIds,
		chatTimeout:  cfg.Server.ChatTimeout,
		logger:       logger_i.NewLogger("RequestHandler"),
	}
}

func (h *Handler) IndexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	res := api.HealthResponse{Status: "ok", IngestRunning: h.jobs != nil && h.jobs.InFlight()}
	if m, err := manifest.Read(h.manifestPath); err == nil {
		res.IndexBuilt = true
		res.EmbeddingModel = m.EmbeddingModel
		res.Chunks = m.TotalChunks
	}
	h.writeJsonResponse(w, http.StatusOK, res)
}

// validK accepts 0 for the default and 1..max_k otherwise.
func (h *Handler) validK(k int) (int, bool) {
	if k < 0 || (k > 0 && h.chat.ClampK(k) != k) {
		return 0, false
	}
	return h.chat.ClampK(k), true
}

func (h *Handler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	var req api.ChatRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Bad Request")
		return
	}
	k, ok := h.validK(req.K)
	if !ok {
		WriteErrorResponse(w, r, http.StatusBadRequest, "k is out of range")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.chatTimeout)
	defer cancel()

	answer, err := h.chat.Ask(ctx, commonModels.Query{
		SessionId: req.SessionID,
		Text:      req.Message,
		K:         k,
		Language:  commonModels.ParseLanguage(req.Language),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if html, err := adapter.RenderMarkdown(answer.Text); err == nil {
		answer.HTML = html
	} else {
		h.logger.Warn("Markdown rendering failed", "error", err)
	}
	h.writeJsonResponse(w, http.StatusOK, adapter.ToChatResponse(answer))
}

func (h *Handler) RetrieveHandler(w http.ResponseWriter, r *http.Request) {
	var req api.RetrieveRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteErrorResponse(w, r, http.StatusBadRequest, "Bad Request")
		return
	}
	k, ok := h.validK(req.K)
	if !ok {
		WriteErrorResponse(w, r, http.StatusBadRequest, "k is out of range")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		h.writeError(w, r, commonModels.ErrEmptyQuestion)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.chatTimeout)
	defer cancel()
	result, err := h.chat.Retrieve(ctx, req.Query, k)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJsonResponse(w, http.StatusOK, adapter.ToRetrieveResponse(result))
}

func (h *Handler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	id, err := h.chat.NewSession(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJsonResponse(w, http.StatusCreated, api.SessionResponse{SessionID: id})
}

func (h *Handler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	if err := h.chat.ResetSession(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.GetChiURLParam(r, "id")
	turns, err := h.chat.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, commonModels.ErrSessionNotFound) {
			WriteErrorResponse(w, r, http.StatusNotFound, "Session not found")
			return
		}
		h.writeError(w, r, err)
		return
	}
	h.writeJsonResponse(w, http.StatusOK, adapter.ToHistoryResponse(id, turns))
}
