package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/cyberrag/internal/api"
	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/data/store"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/handlers"
	"github.com/akolanti/cyberrag/internal/job"
	"github.com/akolanti/cyberrag/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockChat struct {
	onAsk     func(ctx context.Context, q commonModels.Query) (commonModels.Answer, error)
	sessions  map[string][]commonModels.ConversationTurn
	lastQuery commonModels.Query
}

func newMockChat() *mockChat {
	return &mockChat{sessions: map[string][]commonModels.ConversationTurn{}}
}

func (m *mockChat) Ask(ctx context.Context, q commonModels.Query) (commonModels.Answer, error) {
	m.lastQuery = q
	if m.onAsk != nil {
		return m.onAsk(ctx, q)
	}
	return commonModels.Answer{
		SessionId: "s1",
		Text:      "**A01** is Broken Access Control [1]",
		Sources:   []commonModels.ScoredChunk{{Chunk: commonModels.DocChunk{Source: "owasp-top-10.pdf", Position: 5, Chunk: "A01"}, Score: 0.9}},
		Debug:     "Query: q\nRetrieved: 1 documents",
	}, nil
}

func (m *mockChat) Retrieve(ctx context.Context, query string, k int) (commonModels.RetrievalResult, error) {
	return commonModels.RetrievalResult{Query: query, K: k, SearchDepth: k, DetectedLanguage: commonModels.LanguageEnglish}, nil
}

func (m *mockChat) NewSession(ctx context.Context) (string, error) {
	m.sessions["new"] = nil
	return "new", nil
}

func (m *mockChat) ResetSession(ctx context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return commonModels.ErrSessionNotFound
	}
	m.sessions[id] = nil
	return nil
}

func (m *mockChat) History(ctx context.Context, id string) ([]commonModels.ConversationTurn, error) {
	turns, ok := m.sessions[id]
	if !ok {
		return nil, commonModels.ErrSessionNotFound
	}
	return turns, nil
}

func (m *mockChat) ClampK(k int) int {
	if k <= 0 {
		return 3
	}
	return min(k, 15)
}

func newTestRouter(t *testing.T, chat *mockChat, serverCfg config.ServerConfig) (http.Handler, *job.Service) {
	t.Helper()
	cfg := config.Default()
	cfg.VectorStore.PersistDir = t.TempDir()
	cfg.Server = serverCfg
	cfg.Server.ChatTimeout = config.ChatRequestTimeout
	jobs := job.InitJobService(job.ServiceConfig{JobStore: store.InitInMemoryJobStore()})
	return Routes(handlers.New(chat, jobs, cfg), middleware.New(cfg.Server)), jobs
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChat(t *testing.T) {
	chat := newMockChat()
	h, _ := newTestRouter(t, chat, config.ServerConfig{})

	rec := do(t, h, http.MethodPost, "/api/chat", api.ChatRequest{Message: "What is A01?", K: 2, Language: "Thai (ไทย)"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res api.ChatResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "s1", res.SessionID)
	assert.Contains(t, res.HTML, "<strong>A01</strong>")
	assert.Equal(t, "Source: owasp-top-10.pdf, Page: 5", res.SourcesText)
	assert.Equal(t, 2, chat.lastQuery.K)
	assert.Equal(t, commonModels.LanguageThai, chat.lastQuery.Language)
}

func TestChat_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"empty", commonModels.ErrEmptyQuestion, http.StatusBadRequest},
		{"index", commonModels.ErrIndexNotBuilt, http.StatusConflict},
		{"mismatch", commonModels.ErrEmbeddingModelMismatch, http.StatusConflict},
		{"quota", commonModels.ErrProviderQuota, http.StatusTooManyRequests},
		{"auth", commonModels.ErrProviderAuth, http.StatusBadGateway},
		{"session", commonModels.ErrSessionNotFound, http.StatusNotFound},
		{"other", assert.AnError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := newMockChat()
			chat.onAsk = func(ctx context.Context, q commonModels.Query) (commonModels.Answer, error) {
				return commonModels.Answer{}, tt.err
			}
			h, _ := newTestRouter(t, chat, config.ServerConfig{})

			rec := do(t, h, http.MethodPost, "/api/chat", api.ChatRequest{Message: "q"})
			assert.Equal(t, tt.want, rec.Code)

			var res api.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
			assert.Equal(t, tt.want, res.Error.Code)
			assert.NotEmpty(t, res.TraceId)
		})
	}
}

func TestChat_KOutOfRange(t *testing.T) {
	h, _ := newTestRouter(t, newMockChat(), config.ServerConfig{})
	for _, k := range []int{-1, 16} {
		rec := do(t, h, http.MethodPost, "/api/chat", api.ChatRequest{Message: "q", K: k})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "k=%d", k)
	}
}

func TestSessions(t *testing.T) {
	h, _ := newTestRouter(t, newMockChat(), config.ServerConfig{})

	rec := do(t, h, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/sessions/new/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var hist api.HistoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&hist))
	assert.Equal(t, "new", hist.SessionID)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/api/sessions/new", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodDelete, "/api/sessions/ghost", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/sessions/ghost/history", nil).Code)
}

func TestRetrieve(t *testing.T) {
	h, _ := newTestRouter(t, newMockChat(), config.ServerConfig{})

	rec := do(t, h, http.MethodPost, "/api/retrieve", api.RetrieveRequest{Query: "injection"})
	require.Equal(t, http.StatusOK, rec.Code)
	var res api.RetrieveResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, 3, res.K)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/retrieve", api.RetrieveRequest{Query: "  "}).Code)
}

func TestIngest(t *testing.T) {
	h, jobs := newTestRouter(t, newMockChat(), config.ServerConfig{})

	rec := do(t, h, http.MethodPost, "/api/ingest", api.IngestRequest{})
	require.Equal(t, http.StatusAccepted, rec.Code)
	var init api.InitJobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&init))

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/ingest", api.IngestRequest{}).Code)

	rec = do(t, h, http.MethodGet, init.StatusURL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status api.JobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "QUEUED", status.Status)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/ingest/ghost", nil).Code)
	assert.True(t, jobs.InFlight())
}

func TestIngest_UnknownDocument(t *testing.T) {
	h, jobs := newTestRouter(t, newMockChat(), config.ServerConfig{})

	rec := do(t, h, http.MethodPost, "/api/ingest", api.IngestRequest{DocumentIds: []string{"owasp-top-10", "nist-800-53"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var res api.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Contains(t, res.Error.Message, "nist-800-53")
	assert.NotContains(t, res.Error.Message, "owasp-top-10")
	assert.False(t, jobs.InFlight(), "no job may be queued for a rejected request")

	rec = do(t, h, http.MethodPost, "/api/ingest", api.IngestRequest{DocumentIds: []string{"owasp-top-10"}})
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestPublicRoutes(t *testing.T) {
	h, _ := newTestRouter(t, newMockChat(), config.ServerConfig{AuthToken: "secret"})

	rec := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "<title>Cyber RAG</title>"))

	rec = do(t, h, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health api.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	assert.False(t, health.IndexBuilt)

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/chat", api.ChatRequest{Message: "q"}).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/metrics", nil).Code)
}
