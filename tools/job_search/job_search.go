package job_search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/scrape"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/voyager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type (
	ListingFetcher = models.ListingFetcher
	BatchOpener    = models.BatchOpener
)

type Backend string

const (
	ScrapeBackend Backend = "scrape"
	APIBackend    Backend = "linkedin_api"
)

// ParseBackend maps the selection toggle to a backend. Only the exact API
// value selects the authenticated backend.
func ParseBackend(s string) Backend {
	if strings.TrimSpace(s) == string(APIBackend) {
		return APIBackend
	}
	return ScrapeBackend
}

var ErrMissingCredentials = errors.New("listing api credentials missing")

// Options selects and tunes the backend for one search. Build a fresh value
// per call.
type Options struct {
	Backend       Backend
	Email         string
	Password      string
	SearchTimeout time.Duration
	DetailTimeout time.Duration
	Concurrency   int
}

// NewListingFetcher builds the fetcher for opts.Backend.
func NewListingFetcher(opts Options, reporter models.Reporter) (ListingFetcher, error) {
	switch opts.Backend {
	case APIBackend:
		if opts.Email == "" || opts.Password == "" {
			return nil, ErrMissingCredentials
		}
		return voyager.New(voyager.PasswordAuth{Email: opts.Email, Password: opts.Password}, opts.SearchTimeout, reporter), nil
	default:
		return scrape.New(opts.SearchTimeout, reporter), nil
	}
}

var tracer trace.Tracer = otel.Tracer("careerdesk/tools/job_search")

// Service runs a full search: identifiers, then concurrent details.
type Service struct {
	reporter   models.Reporter
	newFetcher func(Options, models.Reporter) (ListingFetcher, error)
}

func NewService(reporter models.Reporter) *Service {
	return &Service{reporter: models.OrNop(reporter), newFetcher: NewListingFetcher}
}

// Search never fails; every degraded path yields fewer or emptier postings
// and a report.
func (s *Service) Search(ctx context.Context, opts Options, params models.SearchParameters) []models.JobPosting {
	ctx, span := tracer.Start(ctx, "job_search.search", trace.WithAttributes(
		attribute.String("backend", string(opts.Backend)),
		attribute.String("keywords", params.KeywordQuery()),
		attribute.Int("limit", params.ResultLimit),
	))
	defer span.End()

	fetcher, err := s.newFetcher(opts, s.reporter)
	if err != nil {
		s.reporter.Report(ctx, models.EventIdentifiersFailed, err)
		recordFetch(opts.Backend, stageIdentifiers, resultFailed, 0)
		return []models.JobPosting{}
	}

	start := time.Now()
	ids := fetcher.FetchIdentifiers(ctx, params)
	result := resultOK
	if len(ids) == 0 {
		result = resultEmpty
	}
	recordFetch(opts.Backend, stageIdentifiers, result, time.Since(start))
	span.SetAttributes(attribute.Int("identifiers", len(ids)))

	agg := &Aggregator{
		Concurrency: opts.Concurrency,
		ItemTimeout: opts.DetailTimeout,
		Reporter:    s.reporter,
		Backend:     opts.Backend,
	}
	return agg.FetchAll(ctx, fetcher, ids)
}
