package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultDecisionTimeout = 60 * time.Second

var agentTracer trace.Tracer = otel.Tracer("careerdesk/internal/agent/core")

// State of a turn inside the router.
type State int

const (
	AwaitingDecision State = iota
	Dispatching
	Terminated
)

func (s State) String() string {
	switch s {
	case AwaitingDecision:
		return "awaiting_decision"
	case Dispatching:
		return "dispatching"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RouterConfig wires the router collaborators.
type RouterConfig struct {
	Registry        *HandlerRegistry
	Handlers        map[string]Handler
	Decider         Decider
	Closer          Closer
	DecisionTimeout time.Duration
	Reporter        Reporter
	Logger          *slog.Logger
}

// Router holds the immutable routing setup shared by every turn.
type Router struct {
	registry        *HandlerRegistry
	handlers        map[string]Handler
	decider         Decider
	closer          Closer
	decisionTimeout time.Duration
	reporter        Reporter
	logger          *slog.Logger
}

// NewRouter requires one bound handler per registered descriptor.
func NewRouter(cfg RouterConfig) (*Router, error) {
	if cfg.Registry == nil {
		return nil, fmt.Errorf("router: registry is required")
	}
	if cfg.Decider == nil {
		return nil, fmt.Errorf("router: decider is required")
	}
	if cfg.Closer == nil {
		return nil, fmt.Errorf("router: closer is required")
	}
	handlers := make(map[string]Handler, len(cfg.Handlers))
	for _, d := range cfg.Registry.Descriptors() {
		h, ok := cfg.Handlers[d.Name]
		if !ok || h == nil {
			return nil, fmt.Errorf("router: no handler bound for %s", d.Name)
		}
		handlers[d.Name] = h
	}
	timeout := cfg.DecisionTimeout
	if timeout <= 0 {
		timeout = DefaultDecisionTimeout
	}
	reporter := cfg.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry:        cfg.Registry,
		handlers:        handlers,
		decider:         cfg.Decider,
		closer:          cfg.Closer,
		decisionTimeout: timeout,
		reporter:        reporter,
		logger:          logger.With("component", "router"),
	}, nil
}

func (r *Router) Registry() *HandlerRegistry { return r.registry }

// Turn is the per-turn state machine. It has a single writer.
type Turn struct {
	router     *Router
	transcript Transcript
	state      State
	next       string
}

// Begin opens a turn. An empty transcript is seeded with the utterance;
// otherwise a non-blank utterance is appended as the newest user message.
func (r *Router) Begin(transcript Transcript, utterance string) *Turn {
	if transcript.Empty() || strings.TrimSpace(utterance) != "" {
		transcript = transcript.Append(UserMessage(utterance))
	}
	return &Turn{router: r, transcript: transcript, state: AwaitingDecision}
}

func (t *Turn) State() State { return t.state }

func (t *Turn) Transcript() Transcript { return t.transcript }

// Next is the handler selected by the last decision.
func (t *Turn) Next() string { return t.next }

// Decide consults the decider once. A handler decision moves the turn to
// Dispatching. Finish invokes the closer, appends its message and terminates.
// Errors are fatal for the turn.
func (t *Turn) Decide(ctx context.Context) (string, error) {
	if t.state != AwaitingDecision {
		return "", fmt.Errorf("decide in state %s", t.state)
	}
	r := t.router
	ctx, span := agentTracer.Start(ctx, "agent.decide")
	defer span.End()

	dctx, cancel := context.WithTimeout(ctx, r.decisionTimeout)
	decision, err := r.decider.Decide(dctx, t.transcript, r.registry.Options())
	cancel()
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrDeciderUnavailable, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	next := strings.TrimSpace(decision.NextAction)
	span.SetAttributes(attribute.String("next_action", next))
	if !r.registry.Valid(next) {
		err := fmt.Errorf("%w: %q", ErrRoutingContract, decision.NextAction)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if next == Finish {
		cctx, cancel := context.WithTimeout(ctx, r.decisionTimeout)
		reply, err := r.closer.Respond(cctx, t.transcript)
		cancel()
		if err != nil {
			err = fmt.Errorf("%w: closing response: %v", ErrDeciderUnavailable, err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return "", err
		}
		t.transcript = t.transcript.Append(Message{Role: RoleAssistant, Content: reply})
		t.state = Terminated
		t.next = Finish
		return Finish, nil
	}

	t.next = next
	t.state = Dispatching
	return next, nil
}

// Dispatch runs the selected handler and appends exactly one message.
func (t *Turn) Dispatch(ctx context.Context) error {
	if t.state != Dispatching {
		return fmt.Errorf("dispatch in state %s", t.state)
	}
	r := t.router
	name := t.next
	ctx, span := agentTracer.Start(ctx, "agent.dispatch", trace.WithAttributes(attribute.String("handler", name)))
	defer span.End()

	start := time.Now()
	msg, err := r.handlers[name].Handle(ctx, t.transcript)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.reporter.Report(ctx, EventHandlerFailed, fmt.Errorf("%s: %w", name, err))
		r.logger.WarnContext(ctx, "handler failed", "handler", name, "error", err)
		msg = Message{Content: fmt.Sprintf("%s could not complete the request: %v", name, err)}
	}
	msg.Role = name
	msg.ProducedBy = name
	t.transcript = t.transcript.Append(msg)
	t.state = AwaitingDecision
	r.logger.DebugContext(ctx, "handler dispatched", "handler", name, "elapsed", time.Since(start))
	return nil
}
