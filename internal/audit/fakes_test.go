package audit

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"
)

type fakeInventory struct {
	compute   []ResourceRecord
	databases []ResourceRecord
	snapshots []ResourceRecord
	volumes   []ResourceRecord

	computeErr  error
	databaseErr error
	snapshotErr error
	volumeErr   error

	mu          sync.Mutex
	volumeState string
}

func (f *fakeInventory) ListRunningCompute(_ context.Context) ([]ResourceRecord, error) {
	return f.compute, f.computeErr
}

func (f *fakeInventory) ListDatabases(_ context.Context) ([]ResourceRecord, error) {
	return f.databases, f.databaseErr
}

func (f *fakeInventory) ListOwnedSnapshots(_ context.Context) ([]ResourceRecord, error) {
	return f.snapshots, f.snapshotErr
}

func (f *fakeInventory) ListVolumesByState(_ context.Context, state string) ([]ResourceRecord, error) {
	f.mu.Lock()
	f.volumeState = state
	f.mu.Unlock()
	return f.volumes, f.volumeErr
}

// fakeMetrics serves per-period averages keyed by metric name and first dimension value.
type fakeMetrics struct {
	values map[string][]float64
	err    error

	mu    sync.Mutex
	calls int
}

func metricKey(metricName, id string) string {
	return metricName + "/" + id
}

func (f *fakeMetrics) GetAverages(_ context.Context, _, metricName string, dims []Dimension, _ int) ([]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if len(dims) == 0 {
		return nil, nil
	}
	return f.values[metricKey(metricName, dims[0].Value)], nil
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Publish(ctx context.Context, subject, body string) error {
	args := m.Called(ctx, subject, body)
	return args.Error(0)
}

type panicCheck struct {
	category Category
}

func (p panicCheck) Category() Category { return p.category }

func (p panicCheck) Run(context.Context) ([]Finding, error) {
	panic("boom")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func computeRecord(id, class string, tags map[string]string) ResourceRecord {
	return ResourceRecord{ID: id, Type: ResourceCompute, Class: class, State: "running", Tags: tags}
}

// idleComputeMetrics returns metric values for one compute instance.
func idleComputeMetrics(id string, cpu, netIn, netOut float64) map[string][]float64 {
	return map[string][]float64{
		metricKey("CPUUtilization", id): {cpu},
		metricKey("NetworkIn", id):      {netIn},
		metricKey("NetworkOut", id):     {netOut},
	}
}
