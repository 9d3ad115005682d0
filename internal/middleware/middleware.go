package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/cyberrag/internal/adapter/utils"
	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/metrics"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

type Middleware struct {
	authToken string //empty disables auth
	limiter   *IPRateLimiter
	logger    *logger_i.Logger
}

func New(cfg config.ServerConfig) *Middleware {
	m := &Middleware{
		authToken: cfg.AuthToken,
		logger:    logger_i.NewLogger("middleware"),
	}
	if cfg.RateLimitPerSecond > 0 {
		m.limiter = NewIPRateLimiter(rate.Limit(cfg.RateLimitPerSecond), max(cfg.RateLimitBurst, 1))
	}
	if m.authToken == "" {
		m.logger.Warn("server.auth_token is empty, API routes are unauthenticated")
	}
	return m
}

// Wrap guards an API route: trace, auth, rate limit, metrics.
func (m *Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return m.chain(next, true)
}

// Public is Wrap without auth and rate limiting, for the UI and probes.
func (m *Middleware) Public(next http.HandlerFunc) http.HandlerFunc {
	return m.chain(next, false)
}

func (m *Middleware) chain(next http.HandlerFunc, guarded bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		re := m.processRequest(requestResponseStruct{req: r, writer: rec, logger: m.logger}, guarded)

		if !handleBadRequest(re) {
			metrics.HttpRequestsTotal.WithLabelValues(utils.RoutePattern(re.req), strconv.Itoa(rec.Status)).Inc()
			return
		}
		next(rec, re.req)

		metrics.HttpRequestsTotal.WithLabelValues(utils.RoutePattern(re.req), strconv.Itoa(rec.Status)).Inc()
	}
}

func (m *Middleware) processRequest(re requestResponseStruct, guarded bool) requestResponseStruct {
	re = injectTrace(re)
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	if !guarded {
		return re
	}
	re = m.authenticate(re)
	if re.badRequest.isBadRequest {
		return re //stop if auth fails
	}
	return m.rateLimiter(re)
}
