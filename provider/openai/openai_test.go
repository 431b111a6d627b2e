package openai_provider

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/careerdesk/provider"
)

func completion(message map[string]any, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{"index": 0, "finish_reason": finish, "message": message}},
		"usage":   map[string]any{"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewOpenAIClient(Config{APIKey: "sk-test", BaseURL: srv.URL + "/v1/"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	return c
}

func TestChatWithToolsMapsToolCalls(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path %s", r.URL.Path)
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(map[string]any{
			"role":    "assistant",
			"content": "",
			"tool_calls": []map[string]any{{
				"id":       "call_1",
				"type":     "function",
				"function": map[string]any{"name": "google_search", "arguments": `{"query":"go jobs"}`},
			}},
		}, "tool_calls"))
	})

	resp, err := c.ChatWithTools(context.Background(), provider.AgentRequest{
		Messages: []provider.Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Name: "ResumeAnalyzer", Content: "skills: go"},
		},
		Tools: []provider.Tool{{Name: "google_search", Description: "search", Parameters: map[string]any{"type": "object"}}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "google_search" || resp.ToolCalls[0].ID != "call_1" {
		t.Fatalf("tool calls %+v", resp.ToolCalls)
	}
	if resp.PromptTokens != 12 || resp.FinishReason != "tool_calls" {
		t.Fatalf("unexpected response %+v", resp)
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("sent messages %v", body["messages"])
	}
	if named, _ := msgs[1].(map[string]any); named["name"] != "ResumeAnalyzer" {
		t.Fatalf("participant name not forwarded: %v", msgs[1])
	}
	if tools, _ := body["tools"].([]any); len(tools) != 1 {
		t.Fatalf("tools not forwarded: %v", body["tools"])
	}
}

func TestChatStructuredDecodesResult(t *testing.T) {
	var format string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		format = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(map[string]any{
			"role":    "assistant",
			"content": `{"next_action":"JobSearcher"}`,
		}, "stop"))
	})

	var out struct {
		NextAction string `json:"next_action"`
	}
	_, err := c.ChatStructured(context.Background(), provider.StructuredRequest{
		Messages:   []provider.Message{{Role: "user", Content: "find jobs"}},
		SchemaName: "route",
		Schema:     map[string]any{"type": "object"},
	}, &out)
	if err != nil {
		t.Fatalf("structured: %v", err)
	}
	if out.NextAction != "JobSearcher" {
		t.Fatalf("decoded %+v", out)
	}
	if !strings.Contains(format, `"json_schema"`) || !strings.Contains(format, `"route"`) {
		t.Fatalf("response format not requested: %s", format)
	}
}

func TestChatWithToolsServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`, http.StatusUnauthorized)
	})
	if _, err := c.ChatWithTools(context.Background(), provider.AgentRequest{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewOpenAIClientRequiresKey(t *testing.T) {
	if _, err := NewOpenAIClient(Config{}); err == nil {
		t.Fatalf("expected missing key error")
	}
}
