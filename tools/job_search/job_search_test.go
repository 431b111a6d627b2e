package job_search

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
)

type stubFetcher struct {
	ids      []models.JobIdentifier
	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	detail   func(ctx context.Context, id models.JobIdentifier) models.JobPosting
}

func (s *stubFetcher) FetchIdentifiers(context.Context, models.SearchParameters) []models.JobIdentifier {
	return s.ids
}

func (s *stubFetcher) FetchDetail(ctx context.Context, id models.JobIdentifier) models.JobPosting {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		prev := s.maxSeen.Load()
		if n <= prev || s.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}
	if s.detail != nil {
		return s.detail(ctx, id)
	}
	return models.JobPosting{ID: id, Title: "title " + string(id)}
}

type batchStub struct {
	*stubFetcher
	err error
}

func (b *batchStub) OpenBatch(context.Context) (ListingFetcher, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.stubFetcher, nil
}

type recordingReporter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingReporter) Report(_ context.Context, event string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingReporter) count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e == event {
			n++
		}
	}
	return n
}

func makeIDs(n int) []models.JobIdentifier {
	out := make([]models.JobIdentifier, n)
	for i := range out {
		out[i] = models.JobIdentifier(string(rune('a' + i)))
	}
	return out
}

func TestFetchAllEmptyInputMakesNoCalls(t *testing.T) {
	f := &stubFetcher{}
	agg := &Aggregator{}
	out := agg.FetchAll(context.Background(), f, nil)
	if out == nil || len(out) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", out)
	}
	if f.calls.Load() != 0 {
		t.Fatalf("expected no detail calls, got %d", f.calls.Load())
	}
}

func TestFetchAllOneOutputPerInputDespiteFailures(t *testing.T) {
	rep := &recordingReporter{}
	f := &stubFetcher{detail: func(ctx context.Context, id models.JobIdentifier) models.JobPosting {
		switch id {
		case "b":
			panic("markup exploded")
		case "c":
			time.Sleep(300 * time.Millisecond)
			return models.JobPosting{ID: id, Title: "late"}
		case "d":
			return models.Empty(id)
		}
		return models.JobPosting{ID: id, Title: "ok"}
	}}
	agg := &Aggregator{ItemTimeout: 50 * time.Millisecond, Reporter: rep}
	in := makeIDs(6)
	out := agg.FetchAll(context.Background(), f, in)
	if len(out) != len(in) {
		t.Fatalf("expected %d postings, got %d", len(in), len(out))
	}

	got := make([]string, 0, len(out))
	titled := 0
	for _, p := range out {
		got = append(got, string(p.ID))
		if p.Title == "ok" {
			titled++
		}
	}
	sort.Strings(got)
	for i, id := range in {
		if got[i] != string(id) {
			t.Fatalf("identifiers %v do not cover input %v", got, in)
		}
	}
	if titled != 3 {
		t.Fatalf("expected 3 resolved postings, got %d", titled)
	}
	if rep.count(models.EventDetailFailed) != 2 {
		t.Fatalf("expected panic and timeout reported, got %v", rep.events)
	}
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	f := &stubFetcher{detail: func(ctx context.Context, id models.JobIdentifier) models.JobPosting {
		time.Sleep(10 * time.Millisecond)
		return models.JobPosting{ID: id, Title: "x"}
	}}
	agg := &Aggregator{Concurrency: 2}
	out := agg.FetchAll(context.Background(), f, makeIDs(8))
	if len(out) != 8 {
		t.Fatalf("expected 8 postings, got %d", len(out))
	}
	if m := f.maxSeen.Load(); m > 2 {
		t.Fatalf("expected at most 2 concurrent fetches, saw %d", m)
	}
}

func TestFetchAllBatchOpenFailureReturnsEmpty(t *testing.T) {
	rep := &recordingReporter{}
	f := &batchStub{stubFetcher: &stubFetcher{}, err: errors.New("no session")}
	out := (&Aggregator{Reporter: rep}).FetchAll(context.Background(), f, makeIDs(3))
	if len(out) != 0 {
		t.Fatalf("expected empty result, got %d", len(out))
	}
	if rep.count(models.EventBatchFailed) != 1 {
		t.Fatalf("expected batch failure report, got %v", rep.events)
	}
	if f.calls.Load() != 0 {
		t.Fatalf("no detail call expected")
	}
}

func TestFetchAllUsesOpenedBatch(t *testing.T) {
	inner := &stubFetcher{}
	f := &batchStub{stubFetcher: inner}
	out := (&Aggregator{}).FetchAll(context.Background(), f, makeIDs(4))
	if len(out) != 4 || inner.calls.Load() != 4 {
		t.Fatalf("expected 4 postings via batch, got %d (%d calls)", len(out), inner.calls.Load())
	}
}

func TestServiceSearch(t *testing.T) {
	f := &stubFetcher{ids: makeIDs(3)}
	var gotOpts Options
	svc := NewService(nil)
	svc.newFetcher = func(opts Options, _ models.Reporter) (ListingFetcher, error) {
		gotOpts = opts
		return f, nil
	}
	params := models.NewSearchParameters(models.RawSearchInput{Keywords: models.StringList{"go"}})
	out := svc.Search(context.Background(), Options{Backend: ScrapeBackend, Concurrency: 2}, params)
	if len(out) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(out))
	}
	if gotOpts.Backend != ScrapeBackend {
		t.Fatalf("options not passed through: %+v", gotOpts)
	}
}

func TestServiceSearchMissingCredentials(t *testing.T) {
	rep := &recordingReporter{}
	svc := NewService(rep)
	params := models.NewSearchParameters(models.RawSearchInput{Keywords: models.StringList{"go"}})
	out := svc.Search(context.Background(), Options{Backend: APIBackend}, params)
	if len(out) != 0 {
		t.Fatalf("expected no postings, got %d", len(out))
	}
	if rep.count(models.EventIdentifiersFailed) != 1 {
		t.Fatalf("expected one report, got %v", rep.events)
	}
}

func TestParseBackend(t *testing.T) {
	cases := map[string]Backend{
		"linkedin_api":  APIBackend,
		" linkedin_api": APIBackend,
		"":              ScrapeBackend,
		"scrape":        ScrapeBackend,
		"LINKEDIN_API":  ScrapeBackend,
	}
	for in, want := range cases {
		if got := ParseBackend(in); got != want {
			t.Fatalf("ParseBackend(%q) = %s, want %s", in, got, want)
		}
	}
}
