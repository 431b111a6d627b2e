package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
	"golang.org/x/net/html"
)

const (
	SearchURL      = "https://www.linkedin.com/jobs-guest/jobs/api/seeMoreJobPostings/search/"
	PostingURL     = "https://www.linkedin.com/jobs-guest/jobs/api/jobPosting/"
	DefaultTimeout = 30 * time.Second
	UserAgent      = "Mozilla/5.0"

	// sortBy=R orders results by most recent.
	sortMostRecent = "R"
	maxBodyBytes   = 4 << 20
)

var (
	listingCard = cascadia.MustCompile("li")
	baseCard    = cascadia.MustCompile("div.base-card")
)

// field is one independently extracted posting attribute.
type field struct {
	sel  cascadia.Selector
	attr string
	set  func(p *models.JobPosting, v string)
}

var detailFields = []field{
	{sel: cascadia.MustCompile("h2.top-card-layout__title"), set: func(p *models.JobPosting, v string) { p.Title = v }},
	{sel: cascadia.MustCompile("span.topcard__flavor--bullet"), set: func(p *models.JobPosting, v string) { p.Location = v }},
	{sel: cascadia.MustCompile("a.topcard__org-name-link"), set: func(p *models.JobPosting, v string) { p.Company = v }},
	{sel: cascadia.MustCompile("span.posted-time-ago__text"), set: func(p *models.JobPosting, v string) { p.PostedAgo = v }},
	{sel: cascadia.MustCompile("span.num-applicants__caption"), set: func(p *models.JobPosting, v string) { p.ApplicantCount = v }},
	{sel: cascadia.MustCompile("div.decorated-job-posting__details"), set: func(p *models.JobPosting, v string) { p.DescriptionText = v }},
	{sel: cascadia.MustCompile("a.topcard__link"), attr: "href", set: func(p *models.JobPosting, v string) { p.ApplyURL = v }},
}

// Fetch reads the public guest job endpoints without authentication.
type Fetch struct {
	Client     *http.Client
	SearchURL  string
	PostingURL string
	UserAgent  string
	Reporter   models.Reporter
}

func New(timeout time.Duration, reporter models.Reporter) *Fetch {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetch{
		Client:     &http.Client{Timeout: timeout},
		SearchURL:  SearchURL,
		PostingURL: PostingURL,
		UserAgent:  UserAgent,
		Reporter:   models.OrNop(reporter),
	}
}

// BuildSearchURL encodes the present parameters onto base.
func BuildSearchURL(base string, p models.SearchParameters) string {
	q := url.Values{}
	q.Set("keywords", p.KeywordQuery())
	if p.LocationName != "" {
		q.Set("location", p.LocationName)
	}
	if codes := models.EmploymentTypes.Codes(p.EmploymentType); len(codes) > 0 {
		q.Set("f_JT", strings.Join(codes, ","))
	}
	if codes := models.ExperienceLevels.Codes(p.ExperienceLevel); len(codes) > 0 {
		q.Set("f_E", strings.Join(codes, ","))
	}
	if codes := models.JobTypes.Codes(p.JobType); len(codes) > 0 {
		q.Set("f_WT", strings.Join(codes, ","))
	}
	if p.RecencySeconds > 0 {
		q.Set("f_TPR", "r"+strconv.Itoa(p.RecencySeconds))
	}
	if p.MaxDistance > 0 && p.LocationName != "" {
		q.Set("distance", strconv.Itoa(p.MaxDistance))
	}
	q.Set("sortBy", sortMostRecent)
	return base + "?" + q.Encode()
}

func (f *Fetch) FetchIdentifiers(ctx context.Context, p models.SearchParameters) []models.JobIdentifier {
	target := BuildSearchURL(f.SearchURL, p)
	body, err := f.get(ctx, target)
	if err != nil {
		f.Reporter.Report(ctx, models.EventIdentifiersFailed, fmt.Errorf("scrape search: %w", err))
		return nil
	}
	defer body.Close()

	ids, err := ParseIdentifiers(body)
	if err != nil {
		f.Reporter.Report(ctx, models.EventIdentifiersFailed, fmt.Errorf("scrape search parse: %w", err))
		return nil
	}
	if p.ResultLimit > 0 && len(ids) > p.ResultLimit {
		ids = ids[:p.ResultLimit]
	}
	return ids
}

func (f *Fetch) FetchDetail(ctx context.Context, id models.JobIdentifier) models.JobPosting {
	body, err := f.get(ctx, f.PostingURL+url.PathEscape(string(id)))
	if err != nil {
		f.Reporter.Report(ctx, models.EventDetailFailed, fmt.Errorf("scrape posting %s: %w", id, err))
		return models.Empty(id)
	}
	defer body.Close()

	doc, err := html.Parse(io.LimitReader(body, maxBodyBytes))
	if err != nil {
		f.Reporter.Report(ctx, models.EventDetailFailed, fmt.Errorf("scrape posting %s parse: %w", id, err))
		return models.Empty(id)
	}
	return ParsePosting(id, doc)
}

func (f *Fetch) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.UserAgent)
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// ParseIdentifiers returns one identifier per listing card carrying a
// base-card urn. Cards without one are skipped.
func ParseIdentifiers(r io.Reader) ([]models.JobIdentifier, error) {
	doc, err := html.Parse(io.LimitReader(r, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	var ids []models.JobIdentifier
	for _, li := range cascadia.QueryAll(doc, listingCard) {
		card := cascadia.Query(li, baseCard)
		if card == nil {
			continue
		}
		parts := strings.Split(attr(card, "data-entity-urn"), ":")
		if len(parts) < 4 || strings.TrimSpace(parts[3]) == "" {
			continue
		}
		ids = append(ids, models.JobIdentifier(strings.TrimSpace(parts[3])))
	}
	return ids, nil
}

// ParsePosting extracts each posting field on its own; a missing node leaves
// only that field empty.
func ParsePosting(id models.JobIdentifier, doc *html.Node) models.JobPosting {
	p := models.Empty(id)
	for _, f := range detailFields {
		f.set(&p, extract(doc, f))
	}
	return p
}

func extract(doc *html.Node, f field) (v string) {
	defer func() {
		if recover() != nil {
			v = ""
		}
	}()
	n := cascadia.Query(doc, f.sel)
	if n == nil {
		return ""
	}
	if f.attr != "" {
		return strings.TrimSpace(attr(n, f.attr))
	}
	return strings.TrimSpace(text(n))
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
