package chromedp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch/models"
)

const userAgent = "careerdesk/1.0 (+https://github.com/mohammad-safakhou/careerdesk)"

// Fetch renders pages in headless Chrome before extracting the article text.
type Fetch struct {
	Timeout  time.Duration
	MaxChars int
}

func (f Fetch) Exec(ctx context.Context, url string) (models.Page, error) {
	if strings.TrimSpace(url) == "" {
		return models.Page{}, errors.New("invalid url")
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	html, err := fetchHTML(ctx, url)
	if err != nil {
		return models.Page{URL: url, Status: 599, RenderMS: elapsed(t0)}, err
	}
	page, err := extract.Readable(url, html, f.MaxChars)
	page.RenderMS = elapsed(t0)
	return page, err
}

func fetchHTML(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent(userAgent),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

func elapsed(t0 time.Time) int {
	return int(time.Since(t0) / time.Millisecond)
}
