package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/provider"
)

// Closer writes the final reply once the supervisor decides to finish.
type Closer struct {
	llm provider.Provider
}

func NewCloser(llm provider.Provider) *Closer {
	return &Closer{llm: llm}
}

func (c *Closer) Respond(ctx context.Context, transcript core.Transcript) (string, error) {
	msgs := append(chatHistory(transcript), systemMessage(FinishPrompt))
	resp, err := c.llm.ChatWithTools(ctx, provider.AgentRequest{Messages: msgs})
	if err != nil {
		return "", fmt.Errorf("closing reply: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
