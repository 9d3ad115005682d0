package job

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/akolanti/cyberrag/internal/adapter/utils"
	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/akolanti/cyberrag/internal/metrics"
	"github.com/akolanti/cyberrag/pkg/logger_i"
)

// Service queues ingestion jobs. At most one job is queued or running at any time.
type Service struct {
	JobChannel chan jobModel.Job
	JobStore   jobModel.JobStore
	inFlight   atomic.Bool
	logger     *logger_i.Logger
}

type ServiceConfig struct {
	JobChannel chan jobModel.Job
	JobStore   jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	if cfg.JobChannel == nil {
		cfg.JobChannel = make(chan jobModel.Job, config.IngestQueueSize)
	}
	return &Service{
		JobChannel: cfg.JobChannel,
		JobStore:   cfg.JobStore,
		logger:     logger_i.NewLogger("JobService"),
	}
}

// SubmitIngest queues a rebuild of the given documents, all configured ones when empty.
func (s *Service) SubmitIngest(ctx context.Context, documentIds []string) (jobModel.Job, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return jobModel.Job{}, commonModels.ErrIngestInProgress
	}

	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	newJob := jobModel.Job{
		Id:          utils.GetNewUUID(),
		TraceId:     trace,
		JobType:     jobModel.JobTypeIngest,
		JobPayload:  jobModel.JobPayload{DocumentIds: documentIds},
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
	}
	log := s.logger.WithTrace(ctx, config.TRACE_ID_KEY).With("jobId", newJob.Id)

	if err := s.JobStore.SaveJob(ctx, newJob); err != nil {
		s.inFlight.Store(false)
		return jobModel.Job{}, fmt.Errorf("saving job: %w", err)
	}

	select {
	case s.JobChannel <- newJob:
	default:
		s.inFlight.Store(false)
		s.JobStore.DeleteJob(ctx, newJob.Id)
		return jobModel.Job{}, commonModels.ErrIngestInProgress
	}
	metrics.IncrementJobsInQueue()
	log.Info("Created new ingest job")
	return newJob, nil
}

func (s *Service) GetJob(ctx context.Context, id string) (jobModel.Job, bool) {
	if id == "" {
		return jobModel.Job{}, false
	}
	return s.JobStore.GetJob(ctx, id)
}

// Done releases the slot taken by SubmitIngest. The worker calls it when a job ends.
func (s *Service) Done() {
	s.inFlight.Store(false)
}

// InFlight reports whether a job is queued or running.
func (s *Service) InFlight() bool {
	return s.inFlight.Load()
}
