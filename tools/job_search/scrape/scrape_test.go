package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
)

func listingPage(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<li><div class="base-card relative" data-entity-urn="urn:li:jobPosting:%d"><a href="#">job</a></div></li>`, 1000+i)
	}
	// an ad slot without a base card
	b.WriteString(`<li><div class="promo">sponsored</div></li>`)
	return b.String()
}

const postingPage = `<html><body>
<h2 class="top-card-layout__title">  Data Engineer </h2>
<a class="topcard__org-name-link" href="/company/acme">Acme GmbH</a>
<span class="topcard__flavor topcard__flavor--bullet">Berlin, Germany</span>
<span class="posted-time-ago__text">2 days ago</span>
<div class="decorated-job-posting__details"><p>Build <b>pipelines</b>.</p></div>
<a class="topcard__link" href="https://acme.example/apply">Apply</a>
</body></html>`

type recordingReporter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingReporter) Report(_ context.Context, event string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func TestBuildSearchURLScenario(t *testing.T) {
	p := models.NewSearchParameters(models.RawSearchInput{
		Keywords:     models.StringList{"data engineer"},
		LocationName: "Berlin",
		Limit:        5,
	})
	got := BuildSearchURL(SearchURL, p)
	if !strings.Contains(got, "keywords=data+engineer&location=Berlin") {
		t.Fatalf("search url %q missing encoded keywords/location", got)
	}
	if !strings.HasPrefix(got, SearchURL+"?") {
		t.Fatalf("unexpected base in %q", got)
	}
	if !strings.Contains(got, "sortBy=R") {
		t.Fatalf("expected most-recent ordering in %q", got)
	}
}

func TestBuildSearchURLEncodesCodesAndDropsUnknown(t *testing.T) {
	p := models.NewSearchParameters(models.RawSearchInput{
		Keywords:       models.StringList{"go", "rust"},
		EmploymentType: models.StringList{"made-up", "contract", "full-time"},
		JobType:        models.StringList{"remote"},
		Experience:     models.StringList{"director"},
	})
	got := BuildSearchURL(SearchURL, p)
	for _, want := range []string{"keywords=go%2C+rust", "f_JT=C%2CF", "f_WT=2", "f_E=5", "f_TPR=r86400"} {
		if !strings.Contains(got, want) {
			t.Fatalf("url %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "made-up") || strings.Contains(got, "location=") || strings.Contains(got, "distance=") {
		t.Fatalf("url %q carries absent or invalid values", got)
	}
}

func TestFetchIdentifiersFromListingCards(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		if ua := r.Header.Get("User-Agent"); ua != UserAgent {
			t.Errorf("user agent = %q", ua)
		}
		fmt.Fprint(w, listingPage(5))
	}))
	defer srv.Close()

	f := New(0, nil)
	f.SearchURL = srv.URL + "/search/"
	p := models.NewSearchParameters(models.RawSearchInput{
		Keywords:     models.StringList{"data engineer"},
		LocationName: "Berlin",
		Limit:        5,
	})
	ids := f.FetchIdentifiers(context.Background(), p)
	if len(ids) != 5 {
		t.Fatalf("expected 5 identifiers, got %d (%v)", len(ids), ids)
	}
	if ids[0] != "1000" || ids[4] != "1004" {
		t.Fatalf("unexpected identifiers %v", ids)
	}
	if !strings.Contains(gotQuery, "keywords=data+engineer&location=Berlin") {
		t.Fatalf("query %q", gotQuery)
	}
}

func TestFetchIdentifiersTruncatesToLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage(8))
	}))
	defer srv.Close()

	f := New(0, nil)
	f.SearchURL = srv.URL
	ids := f.FetchIdentifiers(context.Background(), models.NewSearchParameters(models.RawSearchInput{Keywords: models.StringList{"x"}, Limit: 3}))
	if len(ids) != 3 {
		t.Fatalf("expected 3 identifiers, got %d", len(ids))
	}
}

func TestFetchIdentifiersDegradesOnTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rep := &recordingReporter{}
	f := New(0, rep)
	f.SearchURL = srv.URL
	ids := f.FetchIdentifiers(context.Background(), models.NewSearchParameters(models.RawSearchInput{Keywords: models.StringList{"x"}}))
	if len(ids) != 0 {
		t.Fatalf("expected no identifiers, got %v", ids)
	}
	if len(rep.events) != 1 || rep.events[0] != models.EventIdentifiersFailed {
		t.Fatalf("expected identifiers failure report, got %v", rep.events)
	}
}

func TestFetchDetailExtractsFieldsIndependently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/42") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, postingPage)
	}))
	defer srv.Close()

	f := New(0, nil)
	f.PostingURL = srv.URL + "/jobPosting/"
	p := f.FetchDetail(context.Background(), "42")
	want := models.JobPosting{
		ID:              "42",
		Title:           "Data Engineer",
		Company:         "Acme GmbH",
		Location:        "Berlin, Germany",
		PostedAgo:       "2 days ago",
		DescriptionText: "Build pipelines.",
		ApplyURL:        "https://acme.example/apply",
	}
	if p != want {
		t.Fatalf("posting = %+v\nwant %+v", p, want)
	}
	if p.ApplicantCount != "" {
		t.Fatalf("missing node should leave applicant count empty")
	}

	again := f.FetchDetail(context.Background(), "42")
	if again != p {
		t.Fatalf("repeated fetch differs: %+v vs %+v", again, p)
	}
}

func TestFetchDetailDegradesToEmptyPosting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(0, nil)
	f.PostingURL = srv.URL + "/"
	p := f.FetchDetail(context.Background(), "7")
	if p.ID != "7" || !p.IsEmpty() {
		t.Fatalf("expected empty posting for 7, got %+v", p)
	}
}
