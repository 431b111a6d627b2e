package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// Client represents different LLM providers
type Client string

const (
	OpenAI Client = "openai"
)

// Message is one chat message exchanged with the model.
type Message struct {
	Role       string // system, user, assistant, tool
	Name       string // optional participant name (user messages only)
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
}

// Tool defines a function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  any
}

// ToolCall is a tool invocation requested by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// AgentRequest is one tool-calling round.
type AgentRequest struct {
	Messages    []Message
	Tools       []Tool
	MaxTokens   int
	Temperature *float64
}

// AgentResponse is the model output of one round.
type AgentResponse struct {
	Content          string
	ToolCalls        []ToolCall
	FinishReason     string
	PromptTokens     int
	CompletionTokens int
}

// StructuredRequest asks for a reply conforming to Schema.
type StructuredRequest struct {
	Messages    []Message
	SchemaName  string
	Schema      any
	MaxTokens   int
	Temperature *float64
}

// Provider is the interface that all LLM implementations must satisfy
type Provider interface {
	ChatWithTools(ctx context.Context, req AgentRequest) (*AgentResponse, error)
	ChatStructured(ctx context.Context, req StructuredRequest, result any) (*AgentResponse, error)
	Model() string
}

// ParseToolArguments unmarshals tool arguments into the target type.
func ParseToolArguments[T any](arguments string) (T, error) {
	var result T
	if arguments == "" {
		arguments = "{}"
	}
	if err := json.Unmarshal([]byte(arguments), &result); err != nil {
		return result, fmt.Errorf("parse tool arguments: %w", err)
	}
	return result, nil
}

func Temp(t float64) *float64 {
	return &t
}
