package streams

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultMaxLen caps the fault stream so an unattended deployment does not
// grow it without bound.
const DefaultMaxLen = 10000

// Publisher appends schema-checked envelopes to a Redis stream.
type Publisher struct {
	client   redis.Cmdable
	registry *SchemaRegistry
	maxLen   int64
}

// PublishOption tweaks the XADD call.
type PublishOption func(*redis.XAddArgs)

// WithMaxLenApprox sets an approximate max length for the stream.
func WithMaxLenApprox(maxLen int64) PublishOption {
	return func(args *redis.XAddArgs) {
		if maxLen > 0 {
			args.MaxLen = maxLen
			args.Approx = true
		}
	}
}

func NewPublisher(client redis.Cmdable, registry *SchemaRegistry) *Publisher {
	return &Publisher{client: client, registry: registry, maxLen: DefaultMaxLen}
}

// Publish validates the envelope and appends it to stream.
func (p *Publisher) Publish(ctx context.Context, stream string, envelope Envelope, opts ...PublishOption) (string, error) {
	if stream == "" {
		return "", fmt.Errorf("stream name is required")
	}
	if envelope.EventID == "" {
		envelope.EventID = uuid.NewString()
	}
	if envelope.OccurredAt.IsZero() {
		envelope.OccurredAt = time.Now().UTC()
	}
	if err := envelope.ValidateBasic(); err != nil {
		return "", err
	}
	if p.registry != nil {
		if err := p.registry.Validate(envelope.EventType, envelope.PayloadVersion, envelope.Data); err != nil {
			return "", err
		}
	}

	raw, err := envelope.Marshal()
	if err != nil {
		return "", err
	}
	args := &redis.XAddArgs{
		Stream: stream,
		Values: map[string]interface{}{"envelope": raw},
	}
	WithMaxLenApprox(p.maxLen)(args)
	for _, opt := range opts {
		opt(args)
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}
	return id, nil
}

// PublishRaw wraps payload in a fresh envelope before publishing.
func (p *Publisher) PublishRaw(ctx context.Context, stream, eventType, version string, payload interface{}, opts ...PublishOption) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		EventType:      eventType,
		PayloadVersion: version,
		Data:           data,
	}
	return p.Publish(ctx, stream, env, opts...)
}
