package utils

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func GetNewUUID() string {
	return uuid.New().String()
}

type RouterClient struct {
	Router *chi.Mux
}

func GetChiURLParam(request *http.Request, key string) string {
	return chi.URLParam(request, key)
}

// NewRouter returns a chi router with the prometheus endpoint registered.
func NewRouter() RouterClient {
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	return RouterClient{Router: router}
}

// RoutePattern returns the matched chi pattern, or the raw path outside a chi router.
func RoutePattern(request *http.Request) string {
	if rc := chi.RouteContext(request.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return request.URL.Path
}
