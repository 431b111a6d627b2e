package handlers

import (
	"regexp"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/core"
	"github.com/mohammad-safakhou/careerdesk/provider"
)

var participantName = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// chatHistory maps the transcript onto chat messages. Handler output is
// replayed as a named user message so the model sees who produced it.
func chatHistory(t core.Transcript) []provider.Message {
	msgs := t.Messages()
	out := make([]provider.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case core.RoleUser:
			out = append(out, provider.Message{Role: "user", Content: m.Content})
		case core.RoleAssistant:
			out = append(out, provider.Message{Role: "assistant", Content: m.Content})
		case core.RoleSystem:
			out = append(out, provider.Message{Role: "system", Content: m.Content})
		default:
			out = append(out, provider.Message{
				Role:    "user",
				Name:    participantName.ReplaceAllString(m.Role, "_"),
				Content: m.Content,
			})
		}
	}
	return out
}

func systemMessage(content string) provider.Message {
	return provider.Message{Role: "system", Content: content}
}
