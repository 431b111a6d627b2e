package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/careerdesk/config"
	"github.com/mohammad-safakhou/careerdesk/internal/capability"
	"github.com/mohammad-safakhou/careerdesk/internal/runtime"
	"github.com/mohammad-safakhou/careerdesk/provider"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
)

type recordingJobs struct {
	opts   job_search.Options
	params models.SearchParameters
}

func (r *recordingJobs) Search(_ context.Context, opts job_search.Options, params models.SearchParameters) []models.JobPosting {
	r.opts, r.params = opts, params
	return []models.JobPosting{{ID: "42", Title: "Go Developer", Company: "Acme"}}
}

func TestJobsSearchBuildsParameters(t *testing.T) {
	jobs := &recordingJobs{}
	calls := 0
	h := &JobsHandler{Jobs: jobs, Options: func() job_search.Options {
		calls++
		return job_search.Options{Backend: job_search.ScrapeBackend}
	}}

	e := echo.New()
	body := `{"keywords":"go developer","limit":"2","job_type":["remote","spaceship"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/search", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	if err := h.search(e.NewContext(req, rec)); err != nil {
		t.Fatalf("search: %v", err)
	}
	if calls != 1 || jobs.opts.Backend != job_search.ScrapeBackend {
		t.Fatalf("options not read per call: calls=%d opts=%+v", calls, jobs.opts)
	}
	if jobs.params.ResultLimit != 2 || len(jobs.params.JobType) != 1 || jobs.params.JobType[0] != "remote" {
		t.Fatalf("unexpected params %+v", jobs.params)
	}
	var resp jobsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Postings) != 1 || resp.Postings[0].ID != "42" {
		t.Fatalf("unexpected postings %+v", resp.Postings)
	}
}

func TestJobsSearchRequiresKeywords(t *testing.T) {
	h := &JobsHandler{Jobs: &recordingJobs{}, Options: func() job_search.Options { return job_search.Options{} }}
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs/search", strings.NewReader(`{"location_name":"Berlin"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	err := h.search(e.NewContext(req, httptest.NewRecorder()))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

type finishLLM struct{}

func (finishLLM) ChatWithTools(context.Context, provider.AgentRequest) (*provider.AgentResponse, error) {
	return &provider.AgentResponse{Content: "Good luck with the applications!"}, nil
}

func (finishLLM) ChatStructured(_ context.Context, _ provider.StructuredRequest, result any) (*provider.AgentResponse, error) {
	return &provider.AgentResponse{}, json.Unmarshal([]byte(`{"next_action":"Finish"}`), result)
}

func (finishLLM) Model() string { return "stub" }

func newTestServer(t *testing.T, secret string) *echo.Echo {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	cfg.Server.JWTSecret = secret
	ctx := context.Background()
	app, err := runtime.NewApp(ctx, cfg, runtime.AppOptions{LLM: finishLLM{}, LogWriter: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	t.Cleanup(func() { _ = app.Close(ctx) })
	return New(app)
}

func TestServerRoutesWithAuth(t *testing.T) {
	secret := "api-secret"
	e := newTestServer(t, secret)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tools", nil))
	if rec.Code != http.StatusUnauthorized || !strings.Contains(rec.Body.String(), `"error"`) {
		t.Fatalf("expected 401 json error, got %d %s", rec.Code, rec.Body.String())
	}

	tok, err := runtime.SignJWT("alice", []byte(secret), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/tools", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("tools: %d %s", rec.Code, rec.Body.String())
	}
	var cards []capability.ToolCard
	if err := json.Unmarshal(rec.Body.Bytes(), &cards); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cards) != len(capability.DefaultToolCards()) {
		t.Fatalf("expected %d cards, got %d", len(capability.DefaultToolCards()), len(cards))
	}

	req = httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(`{"message":"that is all, thanks"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var resp chatResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode chat: %v %s", err, rec.Body.String())
	}
	if resp.Reply != "Good luck with the applications!" || resp.Outcome != "finished" || resp.Dispatches != 0 {
		t.Fatalf("unexpected chat response %+v", resp)
	}
}

func TestServerWithoutSecretIsOpen(t *testing.T) {
	e := newTestServer(t, "")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tools/"+capability.GoogleSearch, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected open api, got %d %s", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tools/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
