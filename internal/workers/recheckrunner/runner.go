package recheckrunner

import (
	"context"
	"time"

	"go.uber.org/zap"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
	"breachmonitor/internal/services/breachstate"
)

// NotDispatchedMessage is the StoreError of rows skipped because ctx ended.
const NotDispatchedMessage = "recheck cancelled before dispatch"

// Processor re-checks one monitored entry. It must not fail the batch: any
// error is reported inside the returned result.
type Processor interface {
	Process(ctx context.Context, job ports.RecheckJob) domain.RecheckResult
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job ports.RecheckJob) domain.RecheckResult

func (f ProcessorFunc) Process(ctx context.Context, job ports.RecheckJob) domain.RecheckResult {
	return f(ctx, job)
}

// RunBatch fans entries out to a fixed number of workers and returns results in
// the same order as entries.
func RunBatch(ctx context.Context, entries []domain.MonitoringEntry, processor Processor, concurrency int) []domain.RecheckResult {
	results := make([]domain.RecheckResult, len(entries))
	processed := make([]bool, len(entries))
	if len(entries) == 0 {
		return results
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(entries) {
		concurrency = len(entries)
	}
	jobsCh := make(chan ports.RecheckJob, concurrency)

	// dispatcher
	go func() {
		defer close(jobsCh)
		for i, e := range entries {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case jobsCh <- ports.RecheckJob{Index: i, Entry: e}:
			}
		}
	}()

	// workers
	done := make(chan struct{}, concurrency)
	for i := 0; i < concurrency; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for job := range jobsCh {
				results[job.Index] = processor.Process(ctx, job)
				processed[job.Index] = true
			}
		}()
	}
	for i := 0; i < concurrency; i++ {
		<-done
	}

	// entries never dispatched because ctx ended still get a row, marked
	// degraded so it cannot read as a clean result
	for i, ok := range processed {
		if ok {
			continue
		}
		results[i] = domain.RecheckResult{
			Identity: entries[i].Identity,
			Verdict: domain.RiskVerdict{
				Identity:        entries[i].Identity,
				Records:         []domain.BreachRecord{},
				Degraded:        true,
				DegradedSources: []string{breachstate.SourceBreaches},
			},
			PreviousCount: entries[i].LastBreachCount,
			Notification:  domain.NotificationOutcome{Status: domain.NotificationNotRequired},
			StoreError:    NotDispatchedMessage,
		}
	}
	return results
}

// Every calls fn on each tick until ctx is cancelled. It is the process-level
// trigger for periodic re-checks; the monitoring service itself owns no loop.
func Every(ctx context.Context, interval time.Duration, log *zap.Logger, fn func(ctx context.Context) error) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				log.Error("periodic recheck failed", zap.Error(err))
			}
		}
	}
}
