package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCaptureChatTurn(t *testing.T) {
	before := testutil.ToFloat64(chatTurns.WithLabelValues(OutcomeNoResults))
	CaptureChatTurn(OutcomeNoResults)
	if got := testutil.ToFloat64(chatTurns.WithLabelValues(OutcomeNoResults)); got != before+1 {
		t.Errorf("chat_turns_total{no_results} = %v; want %v", got, before+1)
	}
}

func TestCaptureIngestRun(t *testing.T) {
	CaptureIngestRun("COMPLETE", 42)
	if got := testutil.ToFloat64(indexedChunks); got != 42 {
		t.Errorf("indexed_chunks = %v; want 42", got)
	}

	// a failed run keeps the last indexed size
	CaptureIngestRun("Error", 0)
	if got := testutil.ToFloat64(indexedChunks); got != 42 {
		t.Errorf("indexed_chunks = %v after failure; want 42", got)
	}
}

func TestJobsInQueue(t *testing.T) {
	before := testutil.ToFloat64(countJobsInQueue)
	IncrementJobsInQueue()
	DecrementJobsInQueue()
	if got := testutil.ToFloat64(countJobsInQueue); got != before {
		t.Errorf("count_jobs_in_queue = %v; want %v", got, before)
	}
}

func TestHttpStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	r := &HttpStatusRecorder{ResponseWriter: rec, Status: http.StatusOK}
	r.WriteHeader(http.StatusTeapot)

	if r.Status != http.StatusTeapot || rec.Code != http.StatusTeapot {
		t.Errorf("status = %d/%d; want %d", r.Status, rec.Code, http.StatusTeapot)
	}
}
