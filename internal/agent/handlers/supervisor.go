package handlers

import (
	"context"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/provider"
)

const routeSchemaName = "route"

// Supervisor asks the model which handler acts next.
type Supervisor struct {
	llm      provider.Provider
	registry *core.HandlerRegistry
}

func NewSupervisor(llm provider.Provider, registry *core.HandlerRegistry) *Supervisor {
	return &Supervisor{llm: llm, registry: registry}
}

// Decide implements core.Decider. The reply is constrained to options by the
// response schema; the router still validates it.
func (s *Supervisor) Decide(ctx context.Context, transcript core.Transcript, options []string) (core.RoutingDecision, error) {
	msgs := make([]provider.Message, 0, transcript.Len()+2)
	msgs = append(msgs, systemMessage(SupervisorPrompt(s.registry.Describe())))
	msgs = append(msgs, chatHistory(transcript)...)
	msgs = append(msgs, systemMessage(RoutingInstruction(options)))

	var decision core.RoutingDecision
	_, err := s.llm.ChatStructured(ctx, provider.StructuredRequest{
		Messages:    msgs,
		SchemaName:  routeSchemaName,
		Schema:      RouteSchema(options),
		Temperature: provider.Temp(0),
	}, &decision)
	if err != nil {
		return core.RoutingDecision{}, fmt.Errorf("supervisor decision: %w", err)
	}
	return decision, nil
}

// RouteSchema is the strict object schema {"next_action": <one of options>}.
func RouteSchema(options []string) *jsonschema.Schema {
	enum := make([]any, len(options))
	for i, o := range options {
		enum[i] = o
	}
	props := jsonschema.NewProperties()
	props.Set("next_action", &jsonschema.Schema{
		Type:        "string",
		Description: "The next worker to act, or Finish when the request is complete.",
		Enum:        enum,
	})
	return &jsonschema.Schema{
		Type:                 "object",
		Properties:           props,
		Required:             []string{"next_action"},
		AdditionalProperties: jsonschema.FalseSchema,
	}
}
