package web_fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch/direct"
	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch/models"
)

const (
	DefaultTimeout  = 30 * time.Second
	MaxCharsDefault = 10000
)

type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Page, error)
}

type FetcherType string

const (
	ChromedpFetcherType FetcherType = "chromedp"
	DirectFetcherType   FetcherType = "direct"
)

type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

var ErrUnsupportedFetcher = &Error{"unsupported fetcher type"}

func NewWebFetcher(fetcherType FetcherType, timeout time.Duration, maxChars int) (WebFetcher, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}

	switch fetcherType {
	case ChromedpFetcherType, "":
		return &chromedp.Fetch{Timeout: timeout, MaxChars: maxChars}, nil
	case DirectFetcherType:
		return &direct.Fetch{Timeout: timeout, MaxChars: maxChars}, nil
	default:
		return nil, ErrUnsupportedFetcher
	}
}

// Scrape returns the readable text of url, or a failure notice the model can
// act on. It never returns an error.
func Scrape(ctx context.Context, f WebFetcher, url string) string {
	url = strings.TrimSpace(url)
	page, err := f.Exec(ctx, url)
	if err != nil || strings.TrimSpace(page.Text) == "" {
		slog.WarnContext(ctx, "scrape failed", "url", url, "status", page.Status, "error", err)
		return fmt.Sprintf("Failed to scrape %s", url)
	}
	if page.Title != "" {
		return page.Title + "\n\n" + page.Text
	}
	return page.Text
}
