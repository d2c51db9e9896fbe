// Package hazard fans out to every configured source, merges what comes
// back, and exposes the query operations the transports serve.
package hazard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annwhocodes/ResQMap/internal/ingestion"
	"github.com/annwhocodes/ResQMap/internal/models"
	"github.com/annwhocodes/ResQMap/internal/observability"
)

// Observer is told about every finished source fetch.
type Observer interface {
	SourceFetched(source string, count int, elapsed time.Duration, err error)
}

// Observers fans one notification out to several observers.
type Observers []Observer

func (o Observers) SourceFetched(source string, count int, elapsed time.Duration, err error) {
	for _, obs := range o {
		if obs != nil {
			obs.SourceFetched(source, count, elapsed, err)
		}
	}
}

type AggregatorConfig struct {
	SourceTimeout time.Duration
	Timeout       time.Duration
}

// Aggregator queries all sources concurrently. A source that fails or runs
// out of time contributes nothing; the others are still returned.
type Aggregator struct {
	sources  []ingestion.Source
	cfg      AggregatorConfig
	observer Observer
}

func NewAggregator(sources []ingestion.Source, cfg AggregatorConfig, observer Observer) *Aggregator {
	if observer == nil {
		observer = Observers(nil)
	}
	return &Aggregator{
		sources:  sources,
		cfg:      cfg,
		observer: observer,
	}
}

// Sources returns the names of the configured sources in query order.
func (a *Aggregator) Sources() []string {
	names := make([]string, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

type fetchResult struct {
	index   int
	hazards []models.Hazard
	elapsed time.Duration
	err     error
}

// Fetch returns the hazards of every source that settled in time, in source
// order, plus one status per source.
func (a *Aggregator) Fetch(ctx context.Context) ([]models.Hazard, []models.SourceStatus) {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	// Buffered so late sources can finish after we stop listening.
	results := make(chan fetchResult, len(a.sources))
	for i, src := range a.sources {
		go a.fetchOne(ctx, i, src, results)
	}

	return a.collect(ctx, results, start)
}

func (a *Aggregator) collect(ctx context.Context, results <-chan fetchResult, start time.Time) ([]models.Hazard, []models.SourceStatus) {
	statuses := make([]models.SourceStatus, len(a.sources))
	perSource := make([][]models.Hazard, len(a.sources))
	settled := make([]bool, len(a.sources))
	for i, src := range a.sources {
		statuses[i].Source = src.Name()
	}

	record := func(r fetchResult) {
		settled[r.index] = true
		statuses[r.index].DurationMs = r.elapsed.Milliseconds()
		if r.err != nil {
			statuses[r.index].Error = r.err.Error()
			statuses[r.index].TimedOut = observability.IsTimeout(r.err)
			return
		}
		statuses[r.index].Count = len(r.hazards)
		perSource[r.index] = r.hazards
	}

	pending := len(a.sources)
collect:
	for pending > 0 {
		select {
		case r := <-results:
			record(r)
			pending--
		case <-ctx.Done():
			// Results that arrived together with the deadline still count.
		drain:
			for pending > 0 {
				select {
				case r := <-results:
					record(r)
					pending--
				default:
					break drain
				}
			}
			if pending == 0 {
				break collect
			}
			elapsed := time.Since(start).Milliseconds()
			for i := range statuses {
				if settled[i] {
					continue
				}
				statuses[i].Error = fmt.Sprintf("source did not settle: %v", ctx.Err())
				statuses[i].TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
				statuses[i].DurationMs = elapsed
			}
			if errors.Is(ctx.Err(), context.Canceled) {
				slog.Debug("aggregation canceled", "pending", pending)
			} else {
				slog.Warn("aggregation cut short", "pending", pending, "error", ctx.Err())
			}
			break collect
		}
	}

	total := 0
	for _, hs := range perSource {
		total += len(hs)
	}
	hazards := make([]models.Hazard, 0, total)
	for _, hs := range perSource {
		hazards = append(hazards, hs...)
	}
	return hazards, statuses
}

func (a *Aggregator) fetchOne(ctx context.Context, index int, src ingestion.Source, out chan<- fetchResult) {
	name := src.Name()
	ctx, span := observability.Tracer().Start(ctx, "source.fetch",
		trace.WithAttributes(attribute.String("hazard.source", name)),
	)
	defer span.End()

	fetchCtx := ctx
	if a.cfg.SourceTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, a.cfg.SourceTimeout)
		defer cancel()
	}

	start := time.Now()
	hazards, err := safeFetch(fetchCtx, src)
	elapsed := time.Since(start)

	// The caller gave up on this query; the feed itself did not fail, so
	// health and metrics are left alone.
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		slog.Debug("source fetch canceled", "source", name, "elapsed", elapsed)
		span.SetAttributes(attribute.Bool("hazard.canceled", true))
		out <- fetchResult{index: index, elapsed: elapsed, err: err}
		return
	}

	if err != nil {
		slog.Error("source fetch failed", "source", name, "elapsed", elapsed, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		hazards = nil
	} else {
		slog.Debug("source fetch complete", "source", name, "count", len(hazards), "elapsed", elapsed)
		span.SetAttributes(attribute.Int("hazard.count", len(hazards)))
	}

	a.observer.SourceFetched(name, len(hazards), elapsed, err)
	out <- fetchResult{index: index, hazards: hazards, elapsed: elapsed, err: err}
}

func safeFetch(ctx context.Context, src ingestion.Source) (hazards []models.Hazard, err error) {
	defer func() {
		if r := recover(); r != nil {
			hazards, err = nil, fmt.Errorf("source %s panicked: %v", src.Name(), r)
		}
	}()
	return src.Fetch(ctx)
}
