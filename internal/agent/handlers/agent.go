package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/internal/capability"
	"github.com/mohammad-safakhou/careerdesk/provider"
)

const (
	DefaultMaxToolRounds = 6
	DefaultLLMTimeout    = 60 * time.Second
)

// Tool executes one model tool call. A returned error is shown to the model
// as the tool result.
type Tool interface {
	Call(ctx context.Context, arguments json.RawMessage) (string, error)
}

type ToolFunc func(ctx context.Context, arguments json.RawMessage) (string, error)

func (f ToolFunc) Call(ctx context.Context, arguments json.RawMessage) (string, error) {
	return f(ctx, arguments)
}

// Agent is a handler that runs a tool-calling conversation until the model
// answers without calling a tool.
type Agent struct {
	Name      string
	Prompt    string
	LLM       provider.Provider
	Catalog   *capability.Registry
	Tools     map[string]Tool
	MaxRounds int
	Timeout   time.Duration
	Logger    *slog.Logger
}

func (a *Agent) Handle(ctx context.Context, transcript core.Transcript) (core.Message, error) {
	logger := a.logger()
	defs, err := a.definitions()
	if err != nil {
		return core.Message{}, err
	}

	msgs := make([]provider.Message, 0, transcript.Len()+1)
	msgs = append(msgs, systemMessage(a.Prompt))
	msgs = append(msgs, chatHistory(transcript)...)

	rounds := a.MaxRounds
	if rounds <= 0 {
		rounds = DefaultMaxToolRounds
	}
	for round := 0; ; round++ {
		req := provider.AgentRequest{Messages: msgs}
		// Out of rounds: ask for an answer with what has been gathered.
		if round < rounds {
			req.Tools = defs
		}
		resp, err := a.chat(ctx, req)
		if err != nil {
			logger.WarnContext(ctx, "agent chat failed", "round", round, "error", err)
			return core.HandlerMessage(a.Name, fmt.Sprintf("%s could not complete the request: %v", a.Name, err)), nil
		}
		if len(resp.ToolCalls) == 0 || round >= rounds {
			return core.HandlerMessage(a.Name, strings.TrimSpace(resp.Content)), nil
		}

		msgs = append(msgs, provider.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			out := a.invoke(ctx, call)
			logger.DebugContext(ctx, "tool call", "tool", call.Name, "round", round, "result_len", len(out))
			msgs = append(msgs, provider.Message{Role: "tool", ToolCallID: call.ID, Content: out})
		}
	}
}

func (a *Agent) chat(ctx context.Context, req provider.AgentRequest) (*provider.AgentResponse, error) {
	timeout := a.Timeout
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return a.LLM.ChatWithTools(ctx, req)
}

func (a *Agent) invoke(ctx context.Context, call provider.ToolCall) string {
	tool, ok := a.Tools[call.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Name)
	}
	args := json.RawMessage(call.Arguments)
	if strings.TrimSpace(call.Arguments) == "" {
		args = json.RawMessage("{}")
	}
	if a.Catalog != nil {
		if err := a.Catalog.ValidateArguments(call.Name, args); err != nil {
			return fmt.Sprintf("error: invalid arguments: %v", err)
		}
	}
	out, err := tool.Call(ctx, args)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return out
}

func (a *Agent) definitions() ([]provider.Tool, error) {
	if len(a.Tools) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(a.Tools))
	for name := range a.Tools {
		names = append(names, name)
	}
	sort.Strings(names)
	if a.Catalog == nil {
		return nil, fmt.Errorf("%s: tool catalog missing", a.Name)
	}
	cards, err := a.Catalog.Tools(names...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.Name, err)
	}
	defs := make([]provider.Tool, len(cards))
	for i, c := range cards {
		defs[i] = provider.Tool{Name: c.Name, Description: c.Description, Parameters: c.InputSchema}
	}
	return defs, nil
}

func (a *Agent) logger() *slog.Logger {
	l := a.Logger
	if l == nil {
		l = slog.Default()
	}
	return l.With("handler", a.Name)
}
