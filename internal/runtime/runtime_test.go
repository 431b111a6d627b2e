package runtime

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

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/careerdesk/config"
	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/internal/capability"
	"github.com/mohammad-safakhou/careerdesk/provider"
	"github.com/redis/go-redis/v9"
)

type finishLLM struct{}

func (finishLLM) ChatWithTools(context.Context, provider.AgentRequest) (*provider.AgentResponse, error) {
	return &provider.AgentResponse{Content: "Happy job hunting!"}, nil
}

func (finishLLM) ChatStructured(_ context.Context, _ provider.StructuredRequest, result any) (*provider.AgentResponse, error) {
	return &provider.AgentResponse{}, json.Unmarshal([]byte(`{"next_action":"Finish"}`), result)
}

func (finishLLM) Model() string { return "stub" }

type badDecisionLLM struct{ finishLLM }

func (badDecisionLLM) ChatStructured(_ context.Context, _ provider.StructuredRequest, result any) (*provider.AgentResponse, error) {
	return &provider.AgentResponse{}, json.Unmarshal([]byte(`{"next_action":"Astrologer"}`), result)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	return cfg
}

func TestNewAppRunsATurn(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	app, err := NewApp(ctx, testConfig(t), AppOptions{LLM: finishLLM{}, LogWriter: &logs})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer app.Close(ctx)

	res, err := app.Loop.Run(ctx, core.NewTranscript(), "thanks, that is all")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Outcome != core.OutcomeFinished || res.Reply != "Happy job hunting!" {
		t.Fatalf("result %+v", res)
	}
	if len(app.Catalog.List()) != len(capability.DefaultToolCards()) {
		t.Fatalf("catalog incomplete")
	}
}

func TestNewAppForwardsFaultsToStream(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig(t)
	cfg.Telemetry.StreamEnabled = true
	cfg.Storage.Redis.Addr = mr.Addr()
	app, err := NewApp(ctx, cfg, AppOptions{LLM: badDecisionLLM{}, LogWriter: &bytes.Buffer{}, Redis: client})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}

	res, err := app.Loop.Run(ctx, core.NewTranscript(), "read my horoscope")
	if !errors.Is(err, core.ErrRoutingContract) || res.Reply != core.Apology {
		t.Fatalf("expected routing abort, got %+v %v", res, err)
	}
	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := app.Close(closeCtx); err != nil {
		t.Fatalf("close: %v", err)
	}
	check := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer check.Close()
	n, err := check.XLen(ctx, cfg.Telemetry.FaultStream).Result()
	if err != nil || n != 1 {
		t.Fatalf("stream length %d err %v", n, err)
	}
}

func TestSignAndParseJWT(t *testing.T) {
	secret := []byte("s3cret")
	tok, err := SignJWT("alice", secret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if sub, err := ParseJWT(tok, secret); err != nil || sub != "alice" {
		t.Fatalf("parse: %q %v", sub, err)
	}
	if _, err := ParseJWT(tok, []byte("other")); err == nil {
		t.Fatalf("expected signature failure")
	}
	expired, _ := SignJWT("alice", secret, -time.Minute)
	if _, err := ParseJWT(expired, secret); err == nil {
		t.Fatalf("expected expiry failure")
	}
}

func TestEchoAuthMiddleware(t *testing.T) {
	secret := []byte("s3cret")
	e := echo.New()
	handler := EchoAuthMiddleware(secret)(func(c echo.Context) error {
		sub, _ := SubjectFromContext(c.Request().Context())
		return c.String(http.StatusOK, sub)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	err := handler(e.NewContext(req, rec))
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	tok, _ := SignJWT("bob", secret, time.Hour)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler: %v", err)
	}
	if rec.Body.String() != "bob" {
		t.Fatalf("subject %q", rec.Body.String())
	}
}

func TestRequiredToolsIncludeHandlerCapabilities(t *testing.T) {
	got := requiredTools([]string{capability.GoogleSearch, "custom"})
	joined := strings.Join(got, ",")
	for _, want := range []string{capability.ResumeExtractor, capability.JobSearchTool, capability.ScrapeWebsite, "custom"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %s in %v", want, got)
		}
	}
	if strings.Count(joined, capability.GoogleSearch) != 1 {
		t.Fatalf("duplicates in %v", got)
	}
}

func TestEnsureCapabilityRegistrySigned(t *testing.T) {
	cfg := testConfig(t)
	cfg.Capability.SigningSecret = "sign-me"
	reg, err := EnsureCapabilityRegistry(cfg)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	tc, ok := reg.Tool(capability.SaveCoverLetter)
	if !ok || tc.Signature == "" || tc.Checksum == "" {
		t.Fatalf("card %+v", tc)
	}
}

func TestParseHeaders(t *testing.T) {
	h := parseHeaders("authorization=Bearer x, x-team = core ,broken")
	if h["authorization"] != "Bearer x" || h["x-team"] != "core" || len(h) != 2 {
		t.Fatalf("headers %v", h)
	}
}
