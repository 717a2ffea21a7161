package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/costspectre/internal/audit"
)

func completedSummary() audit.RunSummary {
	return audit.RunSummary{
		Status:       audit.StateCompleted,
		Counts:       audit.Counts{Compute: 2, Snapshot: 1, Volume: 3},
		TotalSavings: 39,
		Notified:     true,
		Errors:       []string{"list DB instances (database): AccessDenied"},
		FinishedAt:   time.Unix(1_760_000_000, 0).UTC(),
	}
}

func TestRecorder_Observe(t *testing.T) {
	r := NewRecorder("us-east-1", "")
	r.Observe(completedSummary())

	assert.Equal(t, 2.0, testutil.ToFloat64(r.findings.WithLabelValues("compute")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.findings.WithLabelValues("database")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.findings.WithLabelValues("snapshot")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.findings.WithLabelValues("volume")))
	assert.Equal(t, 39.0, testutil.ToFloat64(r.savings))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.lastSuccess))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notified))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.checkErrors))
	assert.Equal(t, 1_760_000_000.0, testutil.ToFloat64(r.lastRun))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("completed")))
}

func TestRecorder_ObserveFailedRun(t *testing.T) {
	r := NewRecorder("", "")
	r.Observe(completedSummary())
	r.Observe(audit.RunSummary{Status: audit.StateFailed, FinishedAt: time.Now()})

	assert.Equal(t, 0.0, testutil.ToFloat64(r.lastSuccess))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.findings.WithLabelValues("compute")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("completed")))
}

func TestRecorder_PushWithoutURL(t *testing.T) {
	assert.NoError(t, NewRecorder("us-east-1", "").Push(context.Background()))
}

func TestRecorder_Push(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		b, _ := io.ReadAll(req.Body)
		mu.Lock()
		path = req.URL.Path
		body = string(b)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewRecorder("eu-west-1", srv.URL)
	r.Observe(completedSummary())
	require.NoError(t, r.Push(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/metrics/job/costspectre/region/eu-west-1", path)
	assert.NotEmpty(t, body)
}

func TestRecorder_PushError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewRecorder("", srv.URL).Push(context.Background())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "push metrics"))
}
