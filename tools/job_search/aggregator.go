package job_search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultConcurrency = 5
	DefaultItemTimeout = 30 * time.Second
)

// Aggregator resolves details for a batch of identifiers with bounded
// concurrency. Every identifier yields exactly one posting.
type Aggregator struct {
	Concurrency int
	ItemTimeout time.Duration
	Reporter    models.Reporter
	Backend     Backend
}

// FetchAll returns one posting per identifier, in completion order. A batch
// that cannot be opened yields an empty slice and a report.
func (a *Aggregator) FetchAll(ctx context.Context, fetcher ListingFetcher, ids []models.JobIdentifier) []models.JobPosting {
	if len(ids) == 0 {
		return []models.JobPosting{}
	}
	ctx, span := tracer.Start(ctx, "job_search.fetch_all", trace.WithAttributes(attribute.Int("identifiers", len(ids))))
	defer span.End()

	reporter := models.OrNop(a.Reporter)
	batch := fetcher
	if opener, ok := fetcher.(BatchOpener); ok {
		opened, err := opener.OpenBatch(ctx)
		if err != nil {
			reporter.Report(ctx, models.EventBatchFailed, fmt.Errorf("open detail batch: %w", err))
			recordFetch(a.Backend, stageDetail, resultFailed, 0)
			return []models.JobPosting{}
		}
		batch = opened
	}

	limit := a.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	semaphore := make(chan struct{}, limit)
	results := make(chan models.JobPosting, len(ids))

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				results <- models.Empty(id)
				return
			}
			results <- a.fetchOne(ctx, batch, id, reporter)
		}()
	}
	wg.Wait()
	close(results)

	out := make([]models.JobPosting, 0, len(ids))
	for p := range results {
		out = append(out, p)
	}
	return out
}

// fetchOne bounds one detail call by the item timeout. A call that panics or
// outlives the timeout resolves to the empty posting; siblings are unaffected.
func (a *Aggregator) fetchOne(ctx context.Context, fetcher ListingFetcher, id models.JobIdentifier, reporter models.Reporter) models.JobPosting {
	timeout := a.ItemTimeout
	if timeout <= 0 {
		timeout = DefaultItemTimeout
	}
	itemCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan models.JobPosting, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				reporter.Report(ctx, models.EventDetailFailed, fmt.Errorf("detail %s panicked: %v", id, r))
				done <- models.Empty(id)
			}
		}()
		done <- fetcher.FetchDetail(itemCtx, id)
	}()

	select {
	case p := <-done:
		p.ID = id
		result := resultOK
		if p.IsEmpty() {
			result = resultEmpty
		}
		recordFetch(a.Backend, stageDetail, result, time.Since(start))
		return p
	case <-itemCtx.Done():
		reporter.Report(ctx, models.EventDetailFailed, fmt.Errorf("detail %s: %w", id, itemCtx.Err()))
		recordFetch(a.Backend, stageDetail, resultFailed, time.Since(start))
		return models.Empty(id)
	}
}
