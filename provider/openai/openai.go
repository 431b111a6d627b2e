package openai_provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammad-safakhou/careerdesk/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const (
	DefaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 4096
)

// Config holds the client settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	MaxRetries  int
}

// client implements provider.Provider on the OpenAI chat completions API.
type client struct {
	openai      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(cfg Config) (*client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	return &client{
		openai:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
	}, nil
}

func (c *client) Model() string {
	return c.model
}

// ChatWithTools runs one round of a tool-calling conversation.
func (c *client) ChatWithTools(ctx context.Context, req provider.AgentRequest) (*provider.AgentResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            convertMessages(req.Messages),
		MaxCompletionTokens: openai.Int(int64(c.tokens(req.MaxTokens))),
		Temperature:         openai.Float(c.temp(req.Temperature)),
	}
	if tools := convertTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat with tools: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	choice := resp.Choices[0]
	slog.DebugContext(ctx, "agent chat completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
		"finish_reason", choice.FinishReason)

	out := &provider.AgentResponse{
		Content:          choice.Message.Content,
		FinishReason:     string(choice.FinishReason),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

// ChatStructured asks for a strict JSON schema reply and decodes it into result.
func (c *client) ChatStructured(ctx context.Context, req provider.StructuredRequest, result any) (*provider.AgentResponse, error) {
	name := req.SchemaName
	if name == "" {
		name = "response"
	}
	params := openai.ChatCompletionNewParams{
		Model:               c.model,
		Messages:            convertMessages(req.Messages),
		MaxCompletionTokens: openai.Int(int64(c.tokens(req.MaxTokens))),
		Temperature:         openai.Float(c.temp(req.Temperature)),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        name,
					Description: openai.String("Structured response schema"),
					Schema:      req.Schema,
					Strict:      openai.Bool(true),
				},
			},
		},
	}

	start := time.Now()
	resp, err := c.openai.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai structured chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	slog.DebugContext(ctx, "structured chat completed",
		"model", c.model,
		"schema", name,
		"duration_ms", time.Since(start).Milliseconds())

	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &provider.AgentResponse{
		Content:          content,
		FinishReason:     string(resp.Choices[0].FinishReason),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
	}, nil
}

func (c *client) tokens(n int) int {
	if n > 0 {
		return n
	}
	return c.maxTokens
}

func (c *client) temp(t *float64) float64 {
	if t != nil {
		return *t
	}
	return c.temperature
}

func convertMessages(msgs []provider.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case "system":
			out = append(out, openai.SystemMessage(msg.Content))
		case "user":
			if msg.Name == "" {
				out = append(out, openai.UserMessage(msg.Content))
				continue
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Name: openai.String(msg.Name),
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		case "assistant":
			if len(msg.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(msg.Content))
				continue
			}
			calls := make([]openai.ChatCompletionMessageToolCallParam, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				calls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content:   openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(msg.Content)},
					ToolCalls: calls,
				},
			})
		case "tool":
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return out
}

func convertTools(tools []provider.Tool) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		var params shared.FunctionParameters
		if t.Parameters != nil {
			data, _ := json.Marshal(t.Parameters)
			_ = json.Unmarshal(data, &params)
		}
		out[i] = openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        t.Name,
				Description: openai.String(t.Description),
				Parameters:  params,
			},
		}
	}
	return out
}
