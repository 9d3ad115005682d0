package worker

import (
	"context"
	"time"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/internal/metrics"
	"github.com/akolanti/cyberrag/internal/rag/ingest"
)

func (w *Worker) executeJob(job jobModel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
		metrics.DecrementJobsInQueue()
		w.jobService.Done()
	}()

	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, w.jobTimeout)
	defer cancel()
	log := w.logger.With("traceId", job.TraceId, "jobId", job.Id)
	log.Info("Processing job")

	job.Status = jobModel.JobStatusRunning
	w.saveJobState(ctx, job)

	job = ingest.ProcessDocumentIngestion(ctx, job, w.runner, func(step jobModel.Job) {
		w.saveJobState(ctx, step)
	})

	chunks := 0
	if job.JobPayload.Report != nil {
		chunks = job.JobPayload.Report.TotalChunks
	}
	metrics.CaptureIngestRun(string(job.Status), chunks)
	log.Info("Job finished", "status", job.Status, "chunks", chunks, "duration", time.Since(start))

	// the job context may have expired, the final state must still land
	saveCtx, saveCancel := context.WithTimeout(ctxTrace, 5*time.Second)
	defer saveCancel()
	w.saveJobState(saveCtx, job)
}

func (w *Worker) saveJobState(ctx context.Context, job jobModel.Job) {
	if err := w.jobService.JobStore.SaveJob(ctx, job); err != nil {
		w.logger.Error("Failed to update job state", "jobId", job.Id, "err", err)
	}
}
