package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/akolanti/cyberrag/internal/bootstrap"
	"github.com/akolanti/cyberrag/internal/handlers"
	"github.com/akolanti/cyberrag/internal/job"
	"github.com/akolanti/cyberrag/internal/middleware"
	"github.com/akolanti/cyberrag/internal/server"
	"github.com/akolanti/cyberrag/internal/worker"
	"github.com/akolanti/cyberrag/pkg/logger_i"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listenAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat UI, the HTTP API and the ingestion worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listenAddr != "" {
				opts.cfg.Server.ListenAddr = listenAddr
			}
			return serve(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen-addr", "", "server listen address, overrides server.listen_addr")
	return cmd
}

func serve(ctx context.Context, opts *rootOptions) error {
	logger := logger_i.NewLogger("main")
	cfg := opts.cfg

	serviceContext, closeExternalServices := context.WithCancel(ctx)
	defer closeExternalServices()

	app, err := bootstrap.New(serviceContext, cfg)
	if err != nil {
		logger.Error("One or more external services failed to initialize. Shutting down.", "error", err)
		return err
	}

	logger.Info("Starting job service")
	jobService := job.InitJobService(job.ServiceConfig{JobStore: app.JobStore})

	var workerWaitGroup sync.WaitGroup
	stopWorkerChannel := make(chan bool, 1)
	worker.New(jobService, app.Pipeline, cfg.Ingest.JobTimeout).Start(stopWorkerChannel, &workerWaitGroup)

	h := handlers.New(app.Chat, jobService, cfg)
	srv := server.CreateServer(cfg.Server, server.Routes(h, middleware.New(cfg.Server)))

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(gracefulShutdown)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.ListenAndServe() }()

	shutdownParams := server.ShutdownParams{
		GracefulShutdown: gracefulShutdown,
		WorkerStop:       stopWorkerChannel,
		Group:            &workerWaitGroup,
		CloseServices: func() {
			closeExternalServices()
			app.Close()
		},
	}
	shutdownErr := make(chan error, 1)
	go func() { shutdownErr <- srv.ShutDownHandler(shutdownParams) }()

	select {
	case err := <-serveErr:
		if err != nil {
			close(stopWorkerChannel)
			workerWaitGroup.Wait()
			app.Close()
			return err
		}
		return <-shutdownErr
	case err := <-shutdownErr:
		logger.Info("Server stopped")
		return err
	}
}
