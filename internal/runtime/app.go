package runtime

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mohammad-safakhou/careerdesk/config"
	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/internal/agent/handlers"
	"github.com/mohammad-safakhou/careerdesk/internal/agent/telemetry"
	"github.com/mohammad-safakhou/careerdesk/internal/capability"
	"github.com/mohammad-safakhou/careerdesk/internal/queue/streams"
	"github.com/mohammad-safakhou/careerdesk/provider"
	openai_provider "github.com/mohammad-safakhou/careerdesk/provider/openai"
	"github.com/mohammad-safakhou/careerdesk/session/inmemory"
	"github.com/mohammad-safakhou/careerdesk/tools/cover_letter"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search"
	"github.com/mohammad-safakhou/careerdesk/tools/resume"
	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch"
	"github.com/mohammad-safakhou/careerdesk/tools/web_search"
	wsmodels "github.com/mohammad-safakhou/careerdesk/tools/web_search/models"
	"github.com/redis/go-redis/v9"
)

// App is the wired assistant shared by the server and the CLI.
type App struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *Telemetry
	Sink      *telemetry.Sink
	Catalog   *capability.Registry
	Handlers  *core.HandlerRegistry
	Loop      *core.Loop
	Jobs      *job_search.Service
	Sessions  *inmemory.Store
	Redis     *redis.Client
}

// AppOptions overrides collaborators, mainly for tests.
type AppOptions struct {
	LLM       provider.Provider
	LogWriter io.Writer
	Redis     *redis.Client
}

func NewApp(ctx context.Context, cfg *config.Config, opts AppOptions) (*App, error) {
	app := &App{Config: cfg}

	tel, err := SetupTelemetry(ctx, cfg.Telemetry, TelemetryOptions{
		ServiceName:    cfg.General.ServiceName,
		ServiceVersion: cfg.General.Version,
	})
	if err != nil {
		return nil, err
	}
	app.Telemetry = tel

	w := opts.LogWriter
	if w == nil {
		w = os.Stdout
	}
	app.Logger = SetupLogger(cfg, w, tel.Enabled())

	var forwarders []telemetry.Forwarder
	if cfg.Telemetry.StreamEnabled {
		client := opts.Redis
		if client == nil {
			if client, err = OpenRedis(ctx, cfg.Storage.Redis); err != nil {
				return nil, errors.Join(err, app.Close(ctx))
			}
		}
		app.Redis = client
		reg, err := InitSchemaRegistry()
		if err != nil {
			return nil, errors.Join(err, app.Close(ctx))
		}
		forwarders = append(forwarders, streams.NewEventForwarder(
			streams.NewPublisher(client, reg), cfg.Telemetry.FaultStream, cfg.General.ServiceName))
	}
	app.Sink = telemetry.NewSink(telemetry.Options{
		BufferSize:     cfg.Telemetry.EventBuffer,
		ForwardTimeout: cfg.Telemetry.ForwardTimeout,
		Logger:         app.Logger.With("component", "telemetry"),
		Forwarders:     forwarders,
	})

	if app.Catalog, err = EnsureCapabilityRegistry(cfg); err != nil {
		return nil, errors.Join(err, app.Close(ctx))
	}
	if app.Handlers, err = core.NewHandlerRegistry(core.DefaultDescriptors()...); err != nil {
		return nil, errors.Join(err, app.Close(ctx))
	}

	llm := opts.LLM
	if llm == nil {
		client, err := openai_provider.NewOpenAIClient(openai_provider.Config{
			APIKey:      cfg.LLM.APIKey,
			BaseURL:     cfg.LLM.BaseURL,
			Model:       cfg.LLM.Model,
			Temperature: cfg.LLM.Temperature,
			MaxTokens:   cfg.LLM.MaxTokens,
			Timeout:     cfg.LLM.Timeout,
			MaxRetries:  cfg.LLM.MaxRetries,
		})
		if err != nil {
			return nil, errors.Join(err, app.Close(ctx))
		}
		llm = client
	}

	app.Jobs = job_search.NewService(app.Sink)
	app.Sessions = inmemory.NewInMemorySessionStore()

	bound := handlers.Build(handlers.Deps{
		LLM:           llm,
		Catalog:       app.Catalog,
		Resume:        resume.NewExtractor(cfg.Tools.ResumePath, cfg.Tools.Pdftotext, cfg.Tools.ScrapeTimeout),
		Letters:       cover_letter.NewStore(cfg.Tools.LettersDir),
		Jobs:          app.Jobs,
		JobOptions:    cfg.ListingOptions,
		Search:        newSearcher(cfg.Tools),
		SearchResults: cfg.Tools.SearchResults,
		Fetcher:       newFetcher(cfg.Tools),
		MaxToolRounds: cfg.LLM.MaxToolRounds,
		Timeout:       cfg.LLM.Timeout,
		Logger:        app.Logger.With("component", "handlers"),
	})
	router, err := core.NewRouter(core.RouterConfig{
		Registry:        app.Handlers,
		Handlers:        bound,
		Decider:         handlers.NewSupervisor(llm, app.Handlers),
		Closer:          handlers.NewCloser(llm),
		DecisionTimeout: cfg.Dispatch.DecisionTimeout,
		Reporter:        app.Sink,
		Logger:          app.Logger,
	})
	if err != nil {
		return nil, errors.Join(err, app.Close(ctx))
	}
	app.Loop = core.NewLoop(router,
		core.WithMaxIterations(cfg.Dispatch.MaxIterations),
		core.WithLogger(app.Logger),
	)
	return app, nil
}

// Close drains the fault sink and flushes exporters.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Sink != nil {
		errs = append(errs, a.Sink.Close(ctx))
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	errs = append(errs, a.Telemetry.Shutdown(ctx))
	return errors.Join(errs...)
}

// unavailableSearcher stands in when web search is not configured so the
// model is told why instead of the handler failing.
type unavailableSearcher struct{ err error }

func (u unavailableSearcher) Discover(context.Context, string, int) ([]wsmodels.Result, error) {
	return nil, u.err
}

func newSearcher(cfg config.ToolsConfig) web_search.WebSearcher {
	s, err := web_search.NewWebSearcher(web_search.Provider(cfg.SearchProvider), cfg.SearchAPIKey(), cfg.SearchTimeout)
	if err != nil {
		slog.Warn("web search disabled", "provider", cfg.SearchProvider, "error", err)
		return unavailableSearcher{err: fmt.Errorf("web search unavailable: %w", err)}
	}
	return s
}

func newFetcher(cfg config.ToolsConfig) web_fetch.WebFetcher {
	f, err := web_fetch.NewWebFetcher(web_fetch.FetcherType(cfg.Fetcher), cfg.ScrapeTimeout, cfg.ScrapeMaxChars)
	if err != nil {
		slog.Warn("unknown fetcher, using direct", "fetcher", cfg.Fetcher, "error", err)
		f, _ = web_fetch.NewWebFetcher(web_fetch.DirectFetcherType, cfg.ScrapeTimeout, cfg.ScrapeMaxChars)
	}
	return f
}
