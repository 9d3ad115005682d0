package store_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/akolanti/cyberrag/internal/config"
	"github.com/akolanti/cyberrag/internal/data/redisStore"
	"github.com/akolanti/cyberrag/internal/data/store"
	"github.com/akolanti/cyberrag/internal/domain/commonModels"
	"github.com/akolanti/cyberrag/internal/domain/jobModel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redisStore.Store) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, redisStore.NewTestStore(client)
}

func traceCtx() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

func TestRedisJobStore_Lifecycle(t *testing.T) {
	mr, internalStore := newRedis(t)
	jobStore := store.NewRedisJobStore(internalStore, time.Hour)

	ctx := traceCtx()
	jobID := "job_abc_123"

	testJob := jobModel.Job{
		Id:      jobID,
		JobType: jobModel.JobTypeIngest,
		Status:  jobModel.JobStatusRunning,
		JobPayload: jobModel.JobPayload{
			DocumentIds: []string{"owasp-top-10"},
		},
	}

	t.Run("Save and Get Roundtrip", func(t *testing.T) {
		if err := jobStore.SaveJob(ctx, testJob); err != nil {
			t.Fatalf("SaveJob failed: %v", err)
		}

		retrievedJob, found := jobStore.GetJob(ctx, jobID)
		if !found {
			t.Fatal("Job was saved but not found in Redis")
		}
		if len(retrievedJob.JobPayload.DocumentIds) != 1 || retrievedJob.JobPayload.DocumentIds[0] != "owasp-top-10" {
			t.Errorf("Data mismatch! Got %v", retrievedJob.JobPayload.DocumentIds)
		}
	})

	t.Run("Get Non-Existent Job", func(t *testing.T) {
		if _, found := jobStore.GetJob(ctx, "ghost-id"); found {
			t.Error("Expected found=false for non-existent key")
		}
	})

	t.Run("Expires", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)
		if _, found := jobStore.GetJob(ctx, jobID); found {
			t.Error("job should have expired")
		}
	})

	t.Run("Delete Job", func(t *testing.T) {
		_ = jobStore.SaveJob(ctx, testJob)
		jobStore.DeleteJob(ctx, jobID)
		if mr.Exists("job:" + jobID) {
			t.Error("Job still exists in Redis after DeleteJob call")
		}
	})
}

func TestRedisJobStore_Race(t *testing.T) {
	_, internalStore := newRedis(t)
	jobStore := store.NewRedisJobStore(internalStore, time.Hour)

	ctx := traceCtx()
	job := jobModel.Job{Id: "race-job"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = jobStore.SaveJob(ctx, job)
			_, _ = jobStore.GetJob(ctx, "race-job")
		}()
	}
	wg.Wait()

	if _, found := jobStore.GetJob(ctx, "race-job"); !found {
		t.Error("job missing after concurrent saves")
	}
}

func messageStores(t *testing.T, maxTurns int) map[string]jobModel.MessageStore {
	_, internalStore := newRedis(t)
	return map[string]jobModel.MessageStore{
		"redis":  store.NewRedisMessageStore(internalStore, time.Hour, maxTurns),
		"memory": store.InitMessageStore(maxTurns),
	}
}

func turn(i int) commonModels.ConversationTurn {
	return commonModels.ConversationTurn{User: fmt.Sprintf("q%d", i), Assistant: fmt.Sprintf("a%d", i)}
}

func TestMessageStore_Conversation(t *testing.T) {
	for name, ms := range messageStores(t, 3) {
		t.Run(name, func(t *testing.T) {
			ctx := traceCtx()
			if ms.ValidateChatId(ctx, "s1") {
				t.Fatal("unknown session reported as valid")
			}
			if err := ms.AppendTurn(ctx, "s1", turn(0)); !errors.Is(err, commonModels.ErrSessionNotFound) {
				t.Errorf("append to unknown session: %v", err)
			}

			if err := ms.InitNewChat(ctx, "s1"); err != nil {
				t.Fatal(err)
			}
			if !ms.ValidateChatId(ctx, "s1") {
				t.Fatal("new session should be valid")
			}
			history, err := ms.GetMessageHistory(ctx, "s1", 0)
			if err != nil || len(history) != 0 {
				t.Fatalf("new session history = %v, %v", history, err)
			}

			for i := 1; i <= 5; i++ {
				if err := ms.AppendTurn(ctx, "s1", turn(i)); err != nil {
					t.Fatal(err)
				}
			}

			history, err = ms.GetMessageHistory(ctx, "s1", 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(history) != 3 || history[0].User != "q3" || history[2].User != "q5" {
				t.Errorf("expected the 3 newest turns oldest first, got %+v", history)
			}

			last, _ := ms.GetMessageHistory(ctx, "s1", 2)
			if len(last) != 2 || last[0].User != "q4" {
				t.Errorf("limit 2 = %+v", last)
			}

			if err := ms.DeleteChat(ctx, "s1"); err != nil {
				t.Fatal(err)
			}
			if ms.ValidateChatId(ctx, "s1") {
				t.Error("deleted session still valid")
			}
		})
	}
}

func TestRedisMessageStore_Expires(t *testing.T) {
	mr, internalStore := newRedis(t)
	ms := store.NewRedisMessageStore(internalStore, time.Minute, 10)
	ctx := traceCtx()

	if err := ms.InitNewChat(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(30 * time.Second)
	if err := ms.AppendTurn(ctx, "s1", turn(1)); err != nil {
		t.Fatal(err)
	}
	mr.FastForward(45 * time.Second)
	if !ms.ValidateChatId(ctx, "s1") {
		t.Fatal("appending should refresh the session ttl")
	}
	mr.FastForward(2 * time.Minute)
	if ms.ValidateChatId(ctx, "s1") {
		t.Error("idle session should expire")
	}
}

func TestRedisStore_New(t *testing.T) {
	mr := miniredis.RunT(t)
	s, err := redisStore.New(context.Background(), config.HistoryConfig{RedisAddr: mr.Addr()}, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	addr := mr.Addr()
	mr.Close()
	if _, err := redisStore.New(context.Background(), config.HistoryConfig{RedisAddr: addr}, 1); err == nil {
		t.Error("expected an error when redis is offline")
	}
}

func TestInMemoryJobStore(t *testing.T) {
	s := store.InitInMemoryJobStore()
	ctx := context.Background()
	_ = s.SaveJob(ctx, jobModel.Job{Id: "j1", Status: jobModel.JobStatusQueued})

	got, found := s.GetJob(ctx, "j1")
	if !found || got.Status != jobModel.JobStatusQueued {
		t.Errorf("got %+v, %v", got, found)
	}
	s.DeleteJob(ctx, "j1")
	if _, found := s.GetJob(ctx, "j1"); found {
		t.Error("job should be deleted")
	}
}
