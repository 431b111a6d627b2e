package serper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/helpers"
	"github.com/mohammad-safakhou/careerdesk/tools/web_search/models"
	"github.com/mohammad-safakhou/careerdesk/utils"
)

const Endpoint = "https://google.serper.dev/search"

type Search struct {
	ApiKey   string
	Endpoint string
	Client   *http.Client
}

func New(apiKey string, timeout time.Duration) Search {
	return Search{ApiKey: apiKey, Endpoint: Endpoint, Client: &http.Client{Timeout: timeout}}
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	// https://serper.dev/ docs
	body, err := json.Marshal(map[string]any{"q": q, "num": k})
	if err != nil {
		return nil, err
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = Endpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.ApiKey)
	req.Header.Set("Content-Type", "application/json")
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
		return nil, fmt.Errorf("serper status %d", resp.StatusCode)
	}
	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []models.Result
	items, _ := raw["organic"].([]any)
	for _, it := range items {
		if len(out) >= k {
			break
		}
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, models.Result{
			Title:   utils.Str(m["title"]),
			URL:     utils.Str(m["link"]),
			Snippet: helpers.PlainText(utils.Str(m["snippet"])),
		})
	}
	return out, nil
}
