package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"

	"github.com/akolanti/cyberrag/internal/adapter/utils"
	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/handlers"
	"github.com/akolanti/cyberrag/internal/middleware"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

type Server struct {
	httpServer *http.Server
	settings   config.ServerConfig
	logger     *logger_i.Logger
}

type ShutdownParams struct {
	GracefulShutdown <-chan os.Signal
	WorkerStop       chan bool
	Group            *sync.WaitGroup
	CloseServices    func()
}

// Routes registers every endpoint on a fresh router.
func Routes(h *handlers.Handler, mw *middleware.Middleware) http.Handler {
	r := utils.NewRouter()

	r.Router.Get("/", mw.Public(h.IndexHandler))
	r.Router.Get("/healthz", mw.Public(h.HealthHandler))

	r.Router.Post("/api/chat", mw.Wrap(h.ChatHandler))
	r.Router.Post("/api/retrieve", mw.Wrap(h.RetrieveHandler))
	r.Router.Post("/api/sessions", mw.Wrap(h.CreateSessionHandler))
	r.Router.Delete("/api/sessions/{id}", mw.Wrap(h.DeleteSessionHandler))
	r.Router.Get("/api/sessions/{id}/history", mw.Wrap(h.HistoryHandler))
	r.Router.Post("/api/ingest", mw.Wrap(h.PostIngestHandler))
	r.Router.Get("/api/ingest/{id}", mw.Wrap(h.GetStatusHandler))
	return r.Router
}

func CreateServer(cfg config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.ListenAddr,
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		settings: cfg,
		logger:   logger_i.NewLogger("Server"),
	}
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("Server is listening at", "address", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("Server crashed", "error", err, "addr", s.httpServer.Addr)
		return err
	}
	return nil
}

// ShutDownHandler waits for a signal, then stops the server, the worker and the external clients in that order.
func (s *Server) ShutDownHandler(shutdownParams ShutdownParams) error {
	state := <-shutdownParams.GracefulShutdown
	s.logger.Info("Server is shutting down", "signal", state)

	ctx, cancel := context.WithTimeout(context.Background(), s.settings.ShutdownTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		s.httpServer.SetKeepAlivesEnabled(false)
		err := s.httpServer.Shutdown(ctx)
		if err != nil {
			s.logger.Error("Could not shutdown gracefully", "error", err)
		}

		close(shutdownParams.WorkerStop)
		shutdownParams.Group.Wait()
		if shutdownParams.CloseServices != nil {
			shutdownParams.CloseServices()
		}
		done <- err
	}()

	select {
	case err := <-done:
		s.logger.Info("Gracefully shut down")
		return err
	case <-ctx.Done():
		s.logger.Warn("Forced shut down")
		return ctx.Err()
	}
}
