package streams

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mohammad-safakhou/careerdesk/internal/agent/telemetry"
)

// DefaultFaultStream is the stream fault events are appended to.
const DefaultFaultStream = "careerdesk:faults"

// FaultPayload is the data of a fault envelope.
type FaultPayload struct {
	Cause     string `json:"cause"`
	Component string `json:"component,omitempty"`
}

// EventForwarder ships telemetry events to a Redis stream.
type EventForwarder struct {
	publisher *Publisher
	stream    string
	source    string
}

func NewEventForwarder(publisher *Publisher, stream, source string) *EventForwarder {
	if stream == "" {
		stream = DefaultFaultStream
	}
	return &EventForwarder{publisher: publisher, stream: stream, source: source}
}

// Forward implements telemetry.Forwarder.
func (f *EventForwarder) Forward(ctx context.Context, ev telemetry.Event) error {
	data, err := json.Marshal(FaultPayload{Cause: ev.Cause, Component: componentOf(ev.Name)})
	if err != nil {
		return err
	}
	_, err = f.publisher.Publish(ctx, f.stream, Envelope{
		EventID:        ev.ID,
		EventType:      ev.Name,
		OccurredAt:     ev.OccurredAt,
		TraceID:        ev.TraceID,
		Source:         f.source,
		PayloadVersion: FaultVersion,
		Data:           data,
	})
	return err
}

// componentOf returns the event name prefix, "job_search" for
// "job_search.detail_failed".
func componentOf(event string) string {
	component, _, ok := strings.Cut(event, ".")
	if !ok {
		return ""
	}
	return component
}
