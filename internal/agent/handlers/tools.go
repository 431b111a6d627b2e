package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mohammad-safakhou/careerdesk/internal/capability"
	"github.com/mohammad-safakhou/careerdesk/provider"
	"github.com/mohammad-safakhou/careerdesk/tools/cover_letter"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search"
	"github.com/mohammad-safakhou/careerdesk/tools/job_search/models"
	"github.com/mohammad-safakhou/careerdesk/tools/resume"
	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch"
	"github.com/mohammad-safakhou/careerdesk/tools/web_search"
)

const noResumeReply = "No resume has been uploaded yet. Ask the user to upload a resume PDF."

// ResumeExtractor is satisfied by *resume.Extractor.
type ResumeExtractor interface {
	Extract(ctx context.Context) (string, error)
}

// LetterStore is satisfied by *cover_letter.Store.
type LetterStore interface {
	Save(content, company string) (string, error)
}

// JobSearcher is satisfied by *job_search.Service.
type JobSearcher interface {
	Search(ctx context.Context, opts job_search.Options, params models.SearchParameters) []models.JobPosting
}

func resumeTool(r ResumeExtractor) Tool {
	return ToolFunc(func(ctx context.Context, _ json.RawMessage) (string, error) {
		text, err := r.Extract(ctx)
		if errors.Is(err, resume.ErrNoResume) {
			return noResumeReply, nil
		}
		return text, err
	})
}

func generateLetterTool() Tool {
	return ToolFunc(func(_ context.Context, raw json.RawMessage) (string, error) {
		args, err := provider.ParseToolArguments[capability.GenerateLetterArgs](string(raw))
		if err != nil {
			return "", err
		}
		return cover_letter.Generate(args.ResumeDetails, args.JobDetails)
	})
}

func saveLetterTool(store LetterStore) Tool {
	return ToolFunc(func(_ context.Context, raw json.RawMessage) (string, error) {
		args, err := provider.ParseToolArguments[capability.SaveCoverLetterArgs](string(raw))
		if err != nil {
			return "", err
		}
		return store.Save(args.CoverLetterContent, args.CompanyName)
	})
}

// jobSearchTool reads the backend options on every call so a toggle change
// applies to the next search.
func jobSearchTool(svc JobSearcher, options func() job_search.Options) Tool {
	return ToolFunc(func(ctx context.Context, raw json.RawMessage) (string, error) {
		input, err := provider.ParseToolArguments[models.RawSearchInput](string(raw))
		if err != nil {
			return "", err
		}
		params := models.NewSearchParameters(input)
		if len(params.Keywords) == 0 {
			return "", fmt.Errorf("keywords are required")
		}
		postings := svc.Search(ctx, options(), params)
		out, err := json.Marshal(postings)
		if err != nil {
			return "", err
		}
		return string(out), nil
	})
}

func googleSearchTool(searcher web_search.WebSearcher, k int) Tool {
	return ToolFunc(func(ctx context.Context, raw json.RawMessage) (string, error) {
		args, err := provider.ParseToolArguments[capability.GoogleSearchArgs](string(raw))
		if err != nil {
			return "", err
		}
		results, err := searcher.Discover(ctx, args.Query, k)
		if err != nil {
			return "", err
		}
		if len(results) == 0 {
			return fmt.Sprintf("No results found for %q", args.Query), nil
		}
		return web_search.Format(results), nil
	})
}

func scrapeTool(fetcher web_fetch.WebFetcher) Tool {
	return ToolFunc(func(ctx context.Context, raw json.RawMessage) (string, error) {
		args, err := provider.ParseToolArguments[capability.ScrapeWebsiteArgs](string(raw))
		if err != nil {
			return "", err
		}
		return web_fetch.Scrape(ctx, fetcher, args.URL), nil
	})
}
