package core

import (
	"context"
	"errors"
)

// Roles that are not handler names.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Finish is the routing sentinel that ends a turn.
const Finish = "Finish"

// DefaultMaxIterations bounds the dispatches of a single turn.
const DefaultMaxIterations = 30

// Apology is the reply of a turn that aborted on a routing fault.
const Apology = ":( Sorry, Some error occurred. Can you please try again?"

var (
	ErrRoutingContract    = errors.New("routing decision outside the handler registry")
	ErrDeciderUnavailable = errors.New("routing decider unavailable")
	ErrDuplicateHandler   = errors.New("duplicate handler name")
)

// Message is one transcript entry. Role is user, assistant, system or the
// name of the handler that produced it.
type Message struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	ProducedBy string `json:"produced_by,omitempty"`
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// HandlerMessage attributes content to a handler.
func HandlerMessage(handler, content string) Message {
	return Message{Role: handler, Content: content, ProducedBy: handler}
}

// RoutingDecision names the next handler, or Finish.
type RoutingDecision struct {
	NextAction string `json:"next_action"`
}

// Decider picks the next action among options given the transcript.
type Decider interface {
	Decide(ctx context.Context, transcript Transcript, options []string) (RoutingDecision, error)
}

// Closer writes the closing message of a turn.
type Closer interface {
	Respond(ctx context.Context, transcript Transcript) (string, error)
}

// Handler performs one unit of work and returns exactly one message.
type Handler interface {
	Handle(ctx context.Context, transcript Transcript) (Message, error)
}

type HandlerFunc func(ctx context.Context, transcript Transcript) (Message, error)

func (f HandlerFunc) Handle(ctx context.Context, transcript Transcript) (Message, error) {
	return f(ctx, transcript)
}

// Reporter receives turn-level faults. It must not block.
type Reporter interface {
	Report(ctx context.Context, event string, cause error)
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, string, error) {}

// Outcome of one turn.
type Outcome string

const (
	OutcomeFinished       Outcome = "finished"
	OutcomeCeilingReached Outcome = "ceiling_reached"
	OutcomeAborted        Outcome = "aborted"
)

// TurnResult is what Loop.Run hands back to the caller.
type TurnResult struct {
	Transcript Transcript `json:"transcript"`
	Reply      string     `json:"reply"`
	Outcome    Outcome    `json:"outcome"`
	Dispatches int        `json:"dispatches"`
}

// Events reported by the loop.
const (
	EventTurnAborted    = "turn.aborted"
	EventCeilingReached = "turn.ceiling_reached"
	EventHandlerFailed  = "handler.failed"
)
