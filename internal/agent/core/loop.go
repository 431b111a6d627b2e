package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Loop drives turns through the router up to an iteration ceiling.
type Loop struct {
	router        *Router
	maxIterations int
	logger        *slog.Logger
}

type LoopOption func(*Loop)

// WithMaxIterations overrides the dispatch ceiling. Non-positive keeps the
// default.
func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		if logger != nil {
			l.logger = logger
		}
	}
}

func NewLoop(router *Router, opts ...LoopOption) *Loop {
	l := &Loop{router: router, maxIterations: DefaultMaxIterations, logger: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With("component", "dispatch")
	return l
}

func (l *Loop) MaxIterations() int { return l.maxIterations }

// Run executes one turn. Reaching the ceiling is not an error. A routing
// fault aborts the turn with the apology reply, the transcript accumulated so
// far and the wrapped cause.
func (l *Loop) Run(ctx context.Context, transcript Transcript, utterance string) (TurnResult, error) {
	ctx, span := agentTracer.Start(ctx, "agent.turn")
	defer span.End()
	start := time.Now()

	turn := l.router.Begin(transcript, utterance)
	dispatches := 0
	for dispatches < l.maxIterations {
		next, err := turn.Decide(ctx)
		if err != nil {
			l.router.reporter.Report(ctx, EventTurnAborted, err)
			l.logger.ErrorContext(ctx, "turn aborted", "error", err, "dispatches", dispatches)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			l.finish(span, OutcomeAborted, dispatches, start)
			return TurnResult{
				Transcript: turn.Transcript(),
				Reply:      Apology,
				Outcome:    OutcomeAborted,
				Dispatches: dispatches,
			}, fmt.Errorf("turn aborted: %w", err)
		}
		if next == Finish {
			l.finish(span, OutcomeFinished, dispatches, start)
			return TurnResult{
				Transcript: turn.Transcript(),
				Reply:      lastContent(turn.Transcript()),
				Outcome:    OutcomeFinished,
				Dispatches: dispatches,
			}, nil
		}
		if err := turn.Dispatch(ctx); err != nil {
			return TurnResult{}, err
		}
		dispatches++
		telemetry.RecordDispatch(next)
	}

	l.router.reporter.Report(ctx, EventCeilingReached, fmt.Errorf("stopped after %d dispatches", dispatches))
	l.logger.WarnContext(ctx, "iteration ceiling reached", "dispatches", dispatches)
	l.finish(span, OutcomeCeilingReached, dispatches, start)
	return TurnResult{
		Transcript: turn.Transcript(),
		Reply:      lastContent(turn.Transcript()),
		Outcome:    OutcomeCeilingReached,
		Dispatches: dispatches,
	}, nil
}

func (l *Loop) finish(span trace.Span, outcome Outcome, dispatches int, start time.Time) {
	span.SetAttributes(
		attribute.String("outcome", string(outcome)),
		attribute.Int("dispatches", dispatches),
	)
	telemetry.RecordTurn(string(outcome), time.Since(start).Seconds())
}

func lastContent(t Transcript) string {
	if m, ok := t.Last(); ok {
		return m.Content
	}
	return ""
}
