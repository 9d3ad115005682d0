package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/cyberrag/internal/config"
)

var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// New returns a client sharing one pooled transport, so the embedder and the LLM reuse connections.
// A zero timeout leaves the deadline to the caller's context.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: customTransport,
		Timeout:   timeout,
	}
}
