package worker

import (
	"sync"
	"time"

	"github.com/akolanti/cyberrag/internal/job"
	"github.com/akolanti/cyberrag/internal/rag/ingest"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

// Worker is the single background consumer of ingestion jobs.
type Worker struct {
	jobService *job.Service
	runner     ingest.Runner
	jobTimeout time.Duration
	logger     *logger_i.Logger
}

func New(jobService *job.Service, runner ingest.Runner, jobTimeout time.Duration) *Worker {
	return &Worker{
		jobService: jobService,
		runner:     runner,
		jobTimeout: jobTimeout,
		logger:     logger_i.NewLogger("IngestWorker"),
	}
}

// Start runs the worker until stop is closed. A job in progress finishes first.
func (w *Worker) Start(stop <-chan bool, waitGroup *sync.WaitGroup) {
	waitGroup.Add(1)
	go func() {
		defer waitGroup.Done()
		w.logger.Info("Ingest worker started")
		for {
			select {
			case currentJob := <-w.jobService.JobChannel:
				w.executeJob(currentJob)
			case <-stop:
				w.logger.Info("Stop worker signal received")
				return
			}
		}
	}()
}
