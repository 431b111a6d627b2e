package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/helpers"
	"github.com/mohammad-safakhou/careerdesk/tools/web_search/models"
)

const Endpoint = "https://api.search.brave.com/res/v1/web/search"

type Search struct {
	ApiKey   string
	Endpoint string
	Client   *http.Client
}

func New(apiKey string, timeout time.Duration) Search {
	return Search{ApiKey: apiKey, Endpoint: Endpoint, Client: &http.Client{Timeout: timeout}}
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://api.search.brave.com/app/documentation/web-search
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = Endpoint
	}
	params := url.Values{}
	params.Set("q", q)
	params.Set("count", strconv.Itoa(k))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.ApiKey)
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave status %d", resp.StatusCode)
	}
	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	var out []models.Result
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		out = append(out, models.Result{Title: helpers.PlainText(r.Title), URL: r.URL, Snippet: helpers.PlainText(r.Snippet)})
	}
	return out, nil
}
