package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/internal/capability"
	"github.com/mohammad-safakhou/careerdesk/provider"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search"
	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch"
	"github.com/mohammad-safakhou/careerdesk/tools/web_search"
)

// Deps are the collaborators the default handlers run against.
type Deps struct {
	LLM           provider.Provider
	Catalog       *capability.Registry
	Resume        ResumeExtractor
	Letters       LetterStore
	Jobs          JobSearcher
	JobOptions    func() job_search.Options
	Search        web_search.WebSearcher
	SearchResults int
	Fetcher       web_fetch.WebFetcher
	MaxToolRounds int
	Timeout       time.Duration
	Logger        *slog.Logger
}

// Build returns one handler per default descriptor, keyed by name.
func Build(d Deps) map[string]core.Handler {
	if d.SearchResults <= 0 {
		d.SearchResults = web_search.DefaultResults
	}
	agent := func(name, prompt string, tools map[string]Tool) *Agent {
		return &Agent{
			Name:      name,
			Prompt:    prompt,
			LLM:       d.LLM,
			Catalog:   d.Catalog,
			Tools:     tools,
			MaxRounds: d.MaxToolRounds,
			Timeout:   d.Timeout,
			Logger:    d.Logger,
		}
	}
	return map[string]core.Handler{
		core.ResumeAnalyzer: agent(core.ResumeAnalyzer, AnalyzerPrompt, map[string]Tool{
			capability.ResumeExtractor: resumeTool(d.Resume),
		}),
		core.CoverLetterGenerator: agent(core.CoverLetterGenerator, GeneratorPrompt, map[string]Tool{
			capability.ResumeExtractor: resumeTool(d.Resume),
			capability.GenerateLetter:  generateLetterTool(),
			capability.SaveCoverLetter: saveLetterTool(d.Letters),
		}),
		core.JobSearcher: agent(core.JobSearcher, SearchPrompt, map[string]Tool{
			capability.JobSearchTool: jobSearchTool(d.Jobs, d.JobOptions),
		}),
		core.WebResearcher: agent(core.WebResearcher, ResearcherPrompt, map[string]Tool{
			capability.GoogleSearch:  googleSearchTool(d.Search, d.SearchResults),
			capability.ScrapeWebsite: scrapeTool(d.Fetcher),
		}),
		core.ChatBot: &ChatBot{llm: d.LLM, timeout: d.Timeout},
	}
}

// ChatBot answers from the conversation so far without tools.
type ChatBot struct {
	llm     provider.Provider
	timeout time.Duration
}

func (c *ChatBot) Handle(ctx context.Context, transcript core.Transcript) (core.Message, error) {
	timeout := c.timeout
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reply, err := NewCloser(c.llm).Respond(ctx, transcript)
	if err != nil {
		return core.HandlerMessage(core.ChatBot, fmt.Sprintf("%s could not complete the request: %v", core.ChatBot, err)), nil
	}
	return core.HandlerMessage(core.ChatBot, reply), nil
}
