package core

import (
	"encoding/json"
	"strings"
)

// Transcript is an append-only sequence of messages. Append returns a new
// value; earlier values never observe later messages.
type Transcript struct {
	messages []Message
}

func NewTranscript(messages ...Message) Transcript {
	if len(messages) == 0 {
		return Transcript{}
	}
	return Transcript{messages: append([]Message(nil), messages...)}
}

// Append copies on write so two transcripts never share a tail.
func (t Transcript) Append(m Message) Transcript {
	return Transcript{messages: append(t.messages[:len(t.messages):len(t.messages)], m)}
}

func (t Transcript) Len() int { return len(t.messages) }

func (t Transcript) Empty() bool { return len(t.messages) == 0 }

// Messages returns a copy.
func (t Transcript) Messages() []Message {
	return append([]Message(nil), t.messages...)
}

func (t Transcript) Last() (Message, bool) {
	if len(t.messages) == 0 {
		return Message{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// LastFrom returns the newest message produced by name.
func (t Transcript) LastFrom(name string) (Message, bool) {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].ProducedBy == name {
			return t.messages[i], true
		}
	}
	return Message{}, false
}

// Render formats the transcript as "role: content" lines.
func (t Transcript) Render() string {
	var b strings.Builder
	for i, m := range t.messages {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
	}
	return b.String()
}

func (t Transcript) MarshalJSON() ([]byte, error) {
	if t.messages == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t.messages)
}

func (t *Transcript) UnmarshalJSON(b []byte) error {
	var msgs []Message
	if err := json.Unmarshal(b, &msgs); err != nil {
		return err
	}
	t.messages = msgs
	return nil
}
