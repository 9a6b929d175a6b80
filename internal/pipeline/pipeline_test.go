package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/couchcryptid/outage-insights-service/internal/domain"
	"github.com/couchcryptid/outage-insights-service/internal/observability"
	"github.com/couchcryptid/outage-insights-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	errs    []error
	calls   atomic.Int64
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	i := int(m.calls.Add(1) - 1)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.batches) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.OutputEvent
	fails  int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fails > 0 {
		m.fails--
		return errors.New("broker unavailable")
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func (m *mockLoader) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.loaded)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(ext pipeline.BatchExtractor, tfm pipeline.Transformer, ldr pipeline.BatchLoader) *pipeline.Pipeline {
	return pipeline.New(ext, tfm, ldr, discardLogger(), observability.NewMetricsForTesting(), 50)
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawEvent(t, 101)

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p := newTestPipeline(ext, &mockTransformer{}, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.True(t, p.Ready())
	assert.NoError(t, p.CheckReadiness(ctx))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no events, will block
	ldr := &mockLoader{}
	p := newTestPipeline(ext, &mockTransformer{}, ldr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.Error(t, p.CheckReadiness(ctx))
}

func TestPipeline_Run_TransformErrorCommitsAndSkips(t *testing.T) {
	committed := false
	raw := makeRawEvent(t, 102)
	raw.Commit = func(context.Context) error {
		committed = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{}
	p := newTestPipeline(ext, &mockTransformer{err: errors.New("bad data")}, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Empty(t, ldr.loaded)
	assert.True(t, committed, "poison messages are committed so they are not redelivered")
	assert.False(t, p.Ready())
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	raw := makeRawEvent(t, 105)
	raw.Topic = "raw-outage-events"
	raw.Commit = func(context.Context) error {
		record("commit")
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &recordingLoader{record: record}
	p := newTestPipeline(ext, &mockTransformer{}, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, []string{"load", "commit"}, order)
}

type recordingLoader struct {
	record func(string)
}

func (r *recordingLoader) LoadBatch(context.Context, []domain.OutputEvent) error {
	r.record("load")
	return nil
}

func TestPipeline_Run_RetriesAfterExtractError(t *testing.T) {
	ext := &mockExtractor{
		errs:    []error{errors.New("broker down")},
		batches: [][]domain.RawEvent{nil, {makeRawEvent(t, 1)}},
	}
	ldr := &mockLoader{}
	p := newTestPipeline(ext, &mockTransformer{}, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Equal(t, 1, ldr.count())
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	var commits atomic.Int64
	raw := makeRawEvent(t, 7)
	raw.Commit = func(context.Context) error {
		commits.Add(1)
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawEvent{{raw}}}
	ldr := &mockLoader{fails: 1}
	p := newTestPipeline(ext, &mockTransformer{}, ldr)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, commits.Load())
	assert.False(t, p.Ready())
}

// --- helpers ---

func makeRawEvent(t *testing.T, id int) domain.RawEvent {
	t.Helper()
	lat, lon := 36.1633, -86.752
	start := time.Date(2024, 1, 5, 14, 30, 0, 0, time.UTC)
	data, err := json.Marshal(domain.OutageEvent{
		ID:              id,
		Latitude:        &lat,
		Longitude:       &lon,
		StartTime:       start,
		LastUpdatedTime: start.Add(time.Hour),
		NumPeople:       12,
	})
	require.NoError(t, err)
	return domain.RawEvent{
		Key:   []byte(strconv.Itoa(id)),
		Value: data,
	}
}
