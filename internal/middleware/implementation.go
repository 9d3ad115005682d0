package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/akolanti/cyberrag/internal/adapter/utils"
	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/handlers"
)

const traceHeader = "X-Trace-Id"

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	trace := req.Header.Get(traceHeader)
	if trace == "" {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With(config.TRACE_ID_KEY, trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	re.writer.Header().Set(traceHeader, trace)
	re.req = req.WithContext(ctx)
	return re
}

func (m *Middleware) authenticate(re requestResponseStruct) requestResponseStruct {
	if m.authToken == "" {
		return re
	}
	if !IsValidBearerToken(re.req.Header.Get("Authorization"), m.authToken) {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusUnauthorized,
			errorMessage: "Unauthorized",
		}
		return re
	}
	re.logger.Debug("Authorized")
	return re
}

func IsValidBearerToken(authHeader string, token string) bool {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(authHeader, "Bearer ")), []byte(token)) == 1
}

func (m *Middleware) rateLimiter(re requestResponseStruct) requestResponseStruct {
	if m.limiter == nil {
		return re
	}
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !m.limiter.GetLimiter(ip).Allow() {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			errorMessage: "Rate limit exceeded",
		}
	}
	return re
}

// handleBadRequest writes the rejection, if any, and reports whether the request may proceed.
func handleBadRequest(re requestResponseStruct) bool {
	if re.badRequest.isBadRequest {
		re.logger.Warn("Bad request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", re.req.RemoteAddr)
		handlers.WriteErrorResponse(re.writer, re.req, re.badRequest.httpCode, re.badRequest.errorMessage)
		return false
	}
	return true
}
