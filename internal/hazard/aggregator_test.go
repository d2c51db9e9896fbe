package hazard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/annwhocodes/ResQMap/internal/ingestion"
	"github.com/annwhocodes/ResQMap/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	name    string
	hazards []models.Hazard
	err     error
	delay   time.Duration
	panics  bool
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]models.Hazard, error) {
	if f.panics {
		panic("boom")
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Hazard, len(f.hazards))
	copy(out, f.hazards)
	return out, nil
}

type fetchCall struct {
	source string
	count  int
	err    error
}

type recordingObserver struct {
	mu    sync.Mutex
	calls []fetchCall
}

func (r *recordingObserver) SourceFetched(source string, count int, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fetchCall{source: source, count: count, err: err})
}

func (r *recordingObserver) byName() map[string]fetchCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := make(map[string]fetchCall, len(r.calls))
	for _, c := range r.calls {
		m[c.source] = c
	}
	return m
}

func hz(id string, lat, lng float64) models.Hazard {
	return models.Hazard{ID: id, Type: models.HazardTypeOther, Severity: models.SeverityLow, Latitude: lat, Longitude: lng}
}

func ids(hazards []models.Hazard) []string {
	out := make([]string, len(hazards))
	for i, h := range hazards {
		out[i] = h.ID
	}
	return out
}

func defaultAggCfg() AggregatorConfig {
	return AggregatorConfig{SourceTimeout: time.Second, Timeout: 2 * time.Second}
}

func TestAggregator_SourceOrder(t *testing.T) {
	sources := []ingestion.Source{
		&fakeSource{name: "slow", hazards: []models.Hazard{hz("a1", 0, 0), hz("a2", 0, 0)}, delay: 30 * time.Millisecond},
		&fakeSource{name: "fast", hazards: []models.Hazard{hz("b1", 0, 0)}},
	}
	agg := NewAggregator(sources, defaultAggCfg(), nil)

	hazards, statuses := agg.Fetch(context.Background())
	assert.Equal(t, []string{"a1", "a2", "b1"}, ids(hazards))
	require.Len(t, statuses, 2)
	assert.Equal(t, "slow", statuses[0].Source)
	assert.Equal(t, 2, statuses[0].Count)
	assert.Equal(t, 1, statuses[1].Count)
	assert.True(t, statuses[0].OK())
	assert.Equal(t, []string{"slow", "fast"}, agg.Sources())
}

func TestAggregator_Deterministic(t *testing.T) {
	sources := []ingestion.Source{
		&fakeSource{name: "x", hazards: []models.Hazard{hz("x1", 1, 1), hz("x2", 2, 2)}, delay: 5 * time.Millisecond},
		&fakeSource{name: "y", hazards: []models.Hazard{hz("y1", 1, 1)}},
		&fakeSource{name: "z", hazards: []models.Hazard{hz("z1", 3, 3)}, delay: time.Millisecond},
	}
	agg := NewAggregator(sources, defaultAggCfg(), nil)

	first, _ := agg.Fetch(context.Background())
	for range 5 {
		again, _ := agg.Fetch(context.Background())
		assert.Equal(t, first, again)
	}
}

func TestAggregator_PartialFailure(t *testing.T) {
	obs := &recordingObserver{}
	sources := []ingestion.Source{
		&fakeSource{name: "broken", err: errors.New("connection refused")},
		&fakeSource{name: "ok", hazards: []models.Hazard{hz("ok1", 0, 0)}},
		&fakeSource{name: "empty"},
	}
	agg := NewAggregator(sources, defaultAggCfg(), obs)

	hazards, statuses := agg.Fetch(context.Background())
	assert.Equal(t, []string{"ok1"}, ids(hazards))

	assert.False(t, statuses[0].OK())
	assert.Contains(t, statuses[0].Error, "connection refused")
	assert.False(t, statuses[0].TimedOut)
	assert.True(t, statuses[2].OK())
	assert.Zero(t, statuses[2].Count)

	calls := obs.byName()
	require.Len(t, calls, 3)
	assert.Error(t, calls["broken"].err)
	assert.Equal(t, 1, calls["ok"].count)
}

func TestAggregator_SourceTimeout(t *testing.T) {
	sources := []ingestion.Source{
		&fakeSource{name: "stuck", hazards: []models.Hazard{hz("s1", 0, 0)}, delay: 5 * time.Second},
		&fakeSource{name: "ok", hazards: []models.Hazard{hz("ok1", 0, 0)}},
	}
	agg := NewAggregator(sources, AggregatorConfig{SourceTimeout: 50 * time.Millisecond, Timeout: time.Second}, nil)

	start := time.Now()
	hazards, statuses := agg.Fetch(context.Background())
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, []string{"ok1"}, ids(hazards))
	assert.True(t, statuses[0].TimedOut)
	assert.False(t, statuses[0].OK())
}

func TestAggregator_OverallTimeout(t *testing.T) {
	sources := []ingestion.Source{
		&fakeSource{name: "ok", hazards: []models.Hazard{hz("ok1", 0, 0)}},
		&fakeSource{name: "stuck", delay: 5 * time.Second},
	}
	agg := NewAggregator(sources, AggregatorConfig{Timeout: 50 * time.Millisecond}, nil)

	hazards, statuses := agg.Fetch(context.Background())
	assert.Equal(t, []string{"ok1"}, ids(hazards))
	assert.True(t, statuses[1].TimedOut)
	assert.NotEmpty(t, statuses[1].Error)
}

func TestAggregator_CallerCancelIsNotAFailure(t *testing.T) {
	obs := &recordingObserver{}
	sources := []ingestion.Source{
		&fakeSource{name: "earthquake", hazards: []models.Hazard{hz("e1", 0, 0)}, delay: 5 * time.Second},
	}
	agg := NewAggregator(sources, defaultAggCfg(), obs)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	hazards, statuses := agg.Fetch(ctx)
	assert.Empty(t, hazards)
	assert.False(t, statuses[0].OK())
	assert.False(t, statuses[0].TimedOut)
	assert.Never(t, func() bool { return len(obs.byName()) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestAggregator_CollectKeepsBufferedResults(t *testing.T) {
	sources := []ingestion.Source{
		&fakeSource{name: "done"},
		&fakeSource{name: "stuck"},
	}
	agg := NewAggregator(sources, defaultAggCfg(), nil)

	results := make(chan fetchResult, len(sources))
	results <- fetchResult{index: 0, hazards: []models.Hazard{hz("d1", 0, 0)}, elapsed: time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	hazards, statuses := agg.collect(ctx, results, time.Now())
	assert.Equal(t, []string{"d1"}, ids(hazards))
	assert.True(t, statuses[0].OK())
	assert.Equal(t, 1, statuses[0].Count)
	assert.Contains(t, statuses[1].Error, "did not settle")
	assert.True(t, statuses[1].TimedOut)
}

func TestAggregator_RecoversPanics(t *testing.T) {
	sources := []ingestion.Source{
		&fakeSource{name: "bad", panics: true},
		&fakeSource{name: "ok", hazards: []models.Hazard{hz("ok1", 0, 0)}},
	}
	agg := NewAggregator(sources, defaultAggCfg(), nil)

	hazards, statuses := agg.Fetch(context.Background())
	assert.Equal(t, []string{"ok1"}, ids(hazards))
	assert.Contains(t, statuses[0].Error, "panicked")
}

func TestAggregator_NoSources(t *testing.T) {
	agg := NewAggregator(nil, defaultAggCfg(), nil)
	hazards, statuses := agg.Fetch(context.Background())
	assert.NotNil(t, hazards)
	assert.Empty(t, hazards)
	assert.Empty(t, statuses)
}

func TestObservers_SkipsNil(t *testing.T) {
	a, b := &recordingObserver{}, &recordingObserver{}
	Observers{a, nil, b}.SourceFetched("x", 3, time.Millisecond, nil)
	assert.Len(t, a.calls, 1)
	assert.Len(t, b.calls, 1)
}
