package models

import "context"

// Event names reported on degraded retrieval paths.
const (
	EventIdentifiersFailed = "job_search.identifiers_failed"
	EventDetailFailed      = "job_search.detail_failed"
	EventBatchFailed       = "job_search.batch_failed"
)

// Reporter receives the cause of a degraded fetch. Report must not block.
type Reporter interface {
	Report(ctx context.Context, event string, cause error)
}

// NopReporter discards every report.
type NopReporter struct{}

func (NopReporter) Report(context.Context, string, error) {}

// OrNop returns r, or a NopReporter when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return NopReporter{}
	}
	return r
}
