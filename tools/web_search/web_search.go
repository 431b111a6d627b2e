package web_search

import (
	"context"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerdesk/tools/web_search/brave"
	"github.com/mohammad-safakhou/careerdesk/tools/web_search/models"
	"github.com/mohammad-safakhou/careerdesk/tools/web_search/serper"
)

const (
	DefaultResults = 5
	DefaultTimeout = 15 * time.Second
)

type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

var (
	ErrUnsupportedProvider = &Error{"unsupported provider"}
	ErrMissingAPIKey       = &Error{"search api key missing"}
)

func NewWebSearcher(provider Provider, apiKey string, timeout time.Duration) (WebSearcher, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	switch provider {
	case SerperProvider, "":
		return serper.New(apiKey, timeout), nil
	case BraveProvider:
		return brave.New(apiKey, timeout), nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

// Format renders results as Title/Link/Snippet blocks separated by "---".
// Results without a title or link are skipped.
func Format(results []models.Result) string {
	blocks := make([]string, 0, len(results))
	for _, r := range results {
		if r.Title == "" || r.URL == "" {
			continue
		}
		blocks = append(blocks, strings.Join([]string{
			"Title: " + r.Title,
			"Link: " + r.URL,
			"Snippet: " + r.Snippet,
			"---",
		}, "\n"))
	}
	return strings.Join(blocks, "\n")
}
