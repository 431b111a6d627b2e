package direct

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/careerdesk/tools/web_fetch/models"
)

const maxBodyBytes = 5 << 20

// Fetch downloads pages with a plain GET. Used where no browser is available.
type Fetch struct {
	Timeout  time.Duration
	MaxChars int
	Client   *http.Client
}

func (f Fetch) Exec(ctx context.Context, url string) (models.Page, error) {
	if strings.TrimSpace(url) == "" {
		return models.Page{}, errors.New("invalid url")
	}
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.Page{URL: url}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; careerdesk/1.0)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Page{URL: url, Status: 599}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return models.Page{URL: url, Status: resp.StatusCode}, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return models.Page{URL: url, Status: resp.StatusCode}, err
	}
	page, err := extract.Readable(url, string(body), f.MaxChars)
	page.Status = resp.StatusCode
	page.RenderMS = int(time.Since(t0) / time.Millisecond)
	return page, err
}
