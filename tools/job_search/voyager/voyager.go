package voyager

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/helpers"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
	"github.com/mohammad-safakhou/careerdesk/utils"
)

const (
	DefaultBaseURL = "https://www.linkedin.com/voyager/api"
	DefaultTimeout = 30 * time.Second

	searchDecoration  = "com.linkedin.voyager.dash.deco.jobs.search.JobSearchCardsCollection-174"
	postingDecoration = "com.linkedin.voyager.deco.jobs.web.shared.WebFullJobPosting-65"
	jobPostingType    = "com.linkedin.voyager.dash.jobs.JobPosting"
	companyKey        = "com.linkedin.voyager.deco.jobs.web.shared.WebCompactJobPostingCompany"
	offsiteApplyKey   = "com.linkedin.voyager.jobs.OffsiteApply"
	pageSize          = 25
)

// Fetch queries the authenticated voyager API. Every FetchIdentifiers and
// FetchDetail call authenticates on a fresh cookie jar; OpenBatch shares one
// session across a detail batch.
type Fetch struct {
	BaseURL  string
	Auth     Authenticator
	Timeout  time.Duration
	Reporter models.Reporter
}

func New(auth Authenticator, timeout time.Duration, reporter models.Reporter) *Fetch {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetch{BaseURL: DefaultBaseURL, Auth: auth, Timeout: timeout, Reporter: models.OrNop(reporter)}
}

// session is an authenticated view bound to one cookie jar.
type session struct {
	f      *Fetch
	client *http.Client
	csrf   string
}

func (f *Fetch) open(ctx context.Context) (*session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: f.Timeout, Jar: jar}
	s, err := f.Auth.Authenticate(ctx, client)
	if err != nil {
		return nil, err
	}
	return &session{f: f, client: client, csrf: s.CSRFToken}, nil
}

// OpenBatch authenticates once for a detail batch.
func (f *Fetch) OpenBatch(ctx context.Context) (models.ListingFetcher, error) {
	s, err := f.open(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (f *Fetch) FetchIdentifiers(ctx context.Context, p models.SearchParameters) []models.JobIdentifier {
	s, err := f.open(ctx)
	if err != nil {
		f.Reporter.Report(ctx, models.EventIdentifiersFailed, fmt.Errorf("voyager auth: %w", err))
		return nil
	}
	return s.FetchIdentifiers(ctx, p)
}

func (f *Fetch) FetchDetail(ctx context.Context, id models.JobIdentifier) models.JobPosting {
	s, err := f.open(ctx)
	if err != nil {
		f.Reporter.Report(ctx, models.EventDetailFailed, fmt.Errorf("voyager auth: %w", err))
		return models.Empty(id)
	}
	return s.FetchDetail(ctx, id)
}

func (s *session) FetchIdentifiers(ctx context.Context, p models.SearchParameters) []models.JobIdentifier {
	var ids []models.JobIdentifier
	for start := 0; len(ids) < p.ResultLimit; {
		count := p.ResultLimit - len(ids)
		if count > pageSize {
			count = pageSize
		}
		var page struct {
			Included []map[string]any `json:"included"`
		}
		target := s.f.BaseURL + "/voyagerJobsDashJobCards?" + SearchQuery(p, count, start)
		if err := s.getJSON(ctx, target, "application/vnd.linkedin.normalized+json+2.1", &page); err != nil {
			s.f.Reporter.Report(ctx, models.EventIdentifiersFailed, fmt.Errorf("voyager search: %w", err))
			return ids
		}
		found := 0
		for _, item := range page.Included {
			if utils.Str(item["$type"]) != jobPostingType {
				continue
			}
			_, id, ok := strings.Cut(utils.Str(item["trackingUrn"]), "jobPosting:")
			if !ok || id == "" {
				continue
			}
			found++
			ids = append(ids, models.JobIdentifier(id))
			if len(ids) == p.ResultLimit {
				break
			}
		}
		if found == 0 {
			break
		}
		start += count
	}
	return ids
}

func (s *session) FetchDetail(ctx context.Context, id models.JobIdentifier) models.JobPosting {
	var raw map[string]any
	target := fmt.Sprintf("%s/jobs/jobPostings/%s?decorationId=%s", s.f.BaseURL, url.PathEscape(string(id)), postingDecoration)
	if err := s.getJSON(ctx, target, "application/json", &raw); err != nil {
		s.f.Reporter.Report(ctx, models.EventDetailFailed, fmt.Errorf("voyager posting %s: %w", id, err))
		return models.Empty(id)
	}
	return MapPosting(id, raw)
}

func (s *session) getJSON(ctx context.Context, target, accept string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("csrf-token", s.csrf)
	req.Header.Set("accept", accept)
	req.Header.Set("x-restli-protocol-version", "2.0.0")
	req.Header.Set("x-li-lang", "en_US")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SearchQuery renders the restli job search query string.
func SearchQuery(p models.SearchParameters, count, start int) string {
	filters := []string{}
	if codes := models.EmploymentTypes.Codes(p.EmploymentType); len(codes) > 0 {
		filters = append(filters, "jobType:List("+strings.Join(codes, ",")+")")
	}
	if codes := models.ExperienceLevels.Codes(p.ExperienceLevel); len(codes) > 0 {
		filters = append(filters, "experience:List("+strings.Join(codes, ",")+")")
	}
	if codes := models.JobTypes.Codes(p.JobType); len(codes) > 0 {
		filters = append(filters, "workplaceType:List("+strings.Join(codes, ",")+")")
	}
	if p.MaxDistance > 0 {
		filters = append(filters, "distance:List("+strconv.Itoa(p.MaxDistance)+")")
	}
	filters = append(filters, "timePostedRange:List(r"+strconv.Itoa(p.RecencySeconds)+")")

	parts := []string{"origin:JOB_SEARCH_PAGE_QUERY_EXPANSION"}
	if kw := p.KeywordQuery(); kw != "" {
		parts = append(parts, "keywords:"+kw)
	}
	if p.LocationName != "" {
		parts = append(parts, "locationFallback:"+p.LocationName)
	}
	parts = append(parts, "selectedFilters:("+strings.Join(filters, ",")+")", "spellCorrectionEnabled:true")
	query := "(" + strings.Join(parts, ",") + ")"

	return strings.Join([]string{
		"decorationId=" + searchDecoration,
		"count=" + strconv.Itoa(count),
		"q=jobSearch",
		"query=" + restliEscape(query),
		"start=" + strconv.Itoa(start),
	}, "&")
}

// restliEscape query-escapes s but keeps the restli structural characters.
func restliEscape(s string) string {
	r := strings.NewReplacer("%28", "(", "%29", ")", "%2C", ",", "%3A", ":")
	return r.Replace(url.QueryEscape(s))
}

// MapPosting reads the fields of a WebFullJobPosting document. Each lookup
// falls back to empty on its own.
func MapPosting(id models.JobIdentifier, raw map[string]any) models.JobPosting {
	company := dig(raw, "companyDetails", companyKey, "companyResolutionResult")
	return models.JobPosting{
		ID:              id,
		Title:           str(raw["title"]),
		Company:         str(company["name"]),
		CompanyURL:      str(company["url"]),
		Location:        str(raw["formattedLocation"]),
		DescriptionText: helpers.PlainText(str(dig(raw, "description")["text"])),
		ApplyURL:        str(dig(raw, "applyMethod", offsiteApplyKey)["companyApplyUrl"]),
		RemoteAllowed:   str(raw["workRemoteAllowed"]),
	}
}

func dig(m map[string]any, keys ...string) map[string]any {
	cur := m
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return map[string]any{}
		}
		cur = next
	}
	return cur
}

func str(v any) string {
	return strings.TrimSpace(utils.Str(v))
}
