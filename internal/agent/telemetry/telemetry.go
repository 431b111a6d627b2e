package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultBufferSize     = 256
	DefaultForwardTimeout = 5 * time.Second
)

// Event is one reported fault. Cause is the rendered error text.
type Event struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Cause      string    `json:"cause"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Forwarder ships drained events somewhere durable.
type Forwarder interface {
	Forward(ctx context.Context, ev Event) error
}

// Options configures a Sink.
type Options struct {
	BufferSize     int
	ForwardTimeout time.Duration
	Logger         *slog.Logger
	Forwarders     []Forwarder
}

// Stats is a point-in-time view of the sink counters.
type Stats struct {
	Accepted  int64 `json:"accepted"`
	Dropped   int64 `json:"dropped"`
	Forwarded int64 `json:"forwarded"`
	Failed    int64 `json:"failed"`
}

// Sink receives fault reports without ever blocking the reporter. Events are
// queued on a buffered channel drained by one background goroutine; when the
// buffer is full the event is dropped and counted.
type Sink struct {
	events     chan Event
	logger     *slog.Logger
	forwarders []Forwarder
	timeout    time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	accepted  atomic.Int64
	dropped   atomic.Int64
	forwarded atomic.Int64
	failed    atomic.Int64
}

// NewSink starts the drain goroutine. Call Close to flush and stop it.
func NewSink(opts Options) *Sink {
	size := opts.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	timeout := opts.ForwardTimeout
	if timeout <= 0 {
		timeout = DefaultForwardTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sink{
		events:     make(chan Event, size),
		logger:     logger.With("component", "telemetry"),
		forwarders: opts.Forwarders,
		timeout:    timeout,
		done:       make(chan struct{}),
	}
	go s.drain()
	return s
}

// Report queues an event. It returns immediately in every case.
func (s *Sink) Report(ctx context.Context, event string, cause error) {
	if s == nil {
		return
	}
	ev := Event{
		ID:         uuid.NewString(),
		Name:       event,
		OccurredAt: time.Now().UTC(),
	}
	if cause != nil {
		ev.Cause = cause.Error()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		ev.TraceID = sc.TraceID().String()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.drop(event)
		return
	}
	select {
	case s.events <- ev:
		s.accepted.Add(1)
		recordEvent(event)
	default:
		s.drop(event)
	}
}

func (s *Sink) drop(event string) {
	s.dropped.Add(1)
	recordDropped()
	s.logger.Debug("event dropped", "event", event)
}

func (s *Sink) drain() {
	defer close(s.done)
	for ev := range s.events {
		s.logger.Warn("fault reported", "event", ev.Name, "cause", ev.Cause, "event_id", ev.ID, "trace_id", ev.TraceID)
		for _, f := range s.forwarders {
			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			err := f.Forward(ctx, ev)
			cancel()
			if err != nil {
				s.failed.Add(1)
				s.logger.Error("forward event", "event", ev.Name, "error", err)
				continue
			}
			s.forwarded.Add(1)
		}
	}
}

// Close stops accepting events and waits until queued ones are drained or
// ctx expires.
func (s *Sink) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	s.mu.Unlock()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return errors.Join(errors.New("telemetry sink drain interrupted"), ctx.Err())
	}
}

func (s *Sink) Stats() Stats {
	return Stats{
		Accepted:  s.accepted.Load(),
		Dropped:   s.dropped.Load(),
		Forwarded: s.forwarded.Load(),
		Failed:    s.failed.Load(),
	}
}
