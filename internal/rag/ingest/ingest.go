package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

// Runner is what a job needs from the pipeline.
type Runner interface {
	Run(ctx context.Context, only []string, progress Progress) (jobModel.IngestReport, error)
}

// ProcessDocumentIngestion runs one rebuild job and returns it in its final state.
// onStep is called with the job each time the run reaches a new stage.
func ProcessDocumentIngestion(ctx context.Context, job jobModel.Job, runner Runner, onStep func(jobModel.Job)) jobModel.Job {
	logger := logger_i.NewLogger("Document Ingestion").WithTrace(ctx, config.TRACE_ID_KEY)
	logger.Debug("Processing ingest job", "jobId", job.Id, "documents", job.JobPayload.DocumentIds)

	job.CurrentStep = jobModel.IngestInit
	report, err := runner.Run(ctx, job.JobPayload.DocumentIds, func(step jobModel.InternalStatus) {
		job.CurrentStep = step
		if onStep != nil {
			onStep(job)
		}
	})
	job.EndTime = time.Now()
	if err != nil {
		logger.Error("Error processing documents", "error", err)
		job.Status = jobModel.JobStatusError
		job.CurrentStep = jobModel.Error
		job.Error = jobModel.JobError{Code: errorCode(err), Message: err.Error()}
		return job
	}

	job.Status = jobModel.JobStatusComplete
	job.CurrentStep = jobModel.Complete
	job.JobPayload.Report = &report
	return job
}

func errorCode(err error) int {
	switch {
	case errors.Is(err, commonModels.ErrNoContent):
		return 422
	case errors.Is(err, commonModels.ErrProviderQuota):
		return 429
	case errors.Is(err, commonModels.ErrProviderAuth):
		return 502
	case errors.Is(err, context.DeadlineExceeded):
		return 504
	default:
		return 500
	}
}
