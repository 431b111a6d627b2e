package web_search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/careerdesk/tools/web_search/brave"
	"github.com/mohammad-safakhou/careerdesk/tools/web_search/models"
	"github.com/mohammad-safakhou/careerdesk/tools/web_search/serper"
)

func TestSerperDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "key" {
			t.Errorf("api key header = %q", r.Header.Get("X-API-KEY"))
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["q"] != "golang layoffs" || body["num"] != float64(2) {
			t.Errorf("body %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"organic": []map[string]any{
			{"title": "One", "link": "https://a.example", "snippet": "first <b>hit</b> &amp; more"},
			{"title": "Two", "link": "https://b.example", "snippet": "second"},
			{"title": "Three", "link": "https://c.example", "snippet": "third"},
		}})
	}))
	defer srv.Close()

	s := serper.Search{ApiKey: "key", Endpoint: srv.URL, Client: srv.Client()}
	res, err := s.Discover(context.Background(), "golang layoffs", 2)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(res) != 2 || res[0].Snippet != "first hit & more" {
		t.Fatalf("results %+v", res)
	}
}

func TestBraveDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "go & rust" || r.URL.Query().Get("count") != "5" {
			t.Errorf("query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"web": map[string]any{"results": []map[string]any{
			{"title": "Brave hit", "url": "https://brave.example", "description": "desc"},
		}}})
	}))
	defer srv.Close()

	s := brave.Search{ApiKey: "key", Endpoint: srv.URL, Client: srv.Client()}
	res, err := s.Discover(context.Background(), "go & rust", 5)
	if err != nil || len(res) != 1 || res[0].URL != "https://brave.example" {
		t.Fatalf("results %+v err %v", res, err)
	}
}

func TestSerperStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()
	s := serper.Search{ApiKey: "key", Endpoint: srv.URL}
	if _, err := s.Discover(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected status error")
	}
}

func TestFormat(t *testing.T) {
	out := Format([]models.Result{
		{Title: "One", URL: "https://a.example", Snippet: "s1"},
		{Title: "", URL: "https://skip.example"},
		{Title: "Two", URL: "https://b.example"},
	})
	want := "Title: One\nLink: https://a.example\nSnippet: s1\n---\nTitle: Two\nLink: https://b.example\nSnippet: \n---"
	if out != want {
		t.Fatalf("format:\n%s", out)
	}
	if strings.Contains(out, "skip.example") {
		t.Fatalf("incomplete result rendered")
	}
}

func TestNewWebSearcher(t *testing.T) {
	if _, err := NewWebSearcher(SerperProvider, "", 0); err != ErrMissingAPIKey {
		t.Fatalf("expected missing key, got %v", err)
	}
	if _, err := NewWebSearcher("bing", "k", 0); err != ErrUnsupportedProvider {
		t.Fatalf("expected unsupported, got %v", err)
	}
	if s, err := NewWebSearcher(BraveProvider, "k", 0); err != nil || s == nil {
		t.Fatalf("brave: %v", err)
	}
}
