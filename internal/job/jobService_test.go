package job

import (
	"context"
	"errors"
	"testing"

	"github.com/akolanti/cyberrag/internal/data/store"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
)

func TestSubmitIngest_OneAtATime(t *testing.T) {
	s := InitJobService(ServiceConfig{JobStore: store.InitInMemoryJobStore()})
	ctx := context.Background()

	first, err := s.SubmitIngest(ctx, []string{"owasp-top-10"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != jobModel.JobStatusQueued || first.JobType != jobModel.JobTypeIngest {
		t.Errorf("unexpected job: %+v", first)
	}
	if saved, found := s.GetJob(ctx, first.Id); !found || saved.Id != first.Id {
		t.Error("queued job should be stored")
	}

	if _, err := s.SubmitIngest(ctx, nil); !errors.Is(err, commonModels.ErrIngestInProgress) {
		t.Errorf("expected ErrIngestInProgress, got %v", err)
	}

	<-s.JobChannel
	s.Done()
	if s.InFlight() {
		t.Error("Done should release the slot")
	}
	if _, err := s.SubmitIngest(ctx, nil); err != nil {
		t.Errorf("submit after Done failed: %v", err)
	}
}

func TestGetJob_Empty(t *testing.T) {
	s := InitJobService(ServiceConfig{JobStore: store.InitInMemoryJobStore()})
	if _, found := s.GetJob(context.Background(), ""); found {
		t.Error("empty id should not be found")
	}
}
