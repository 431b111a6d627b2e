package streams

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consumer reads envelopes from a stream through a consumer group.
type Consumer struct {
	client   redis.Cmdable
	registry *SchemaRegistry
	group    string
	name     string
}

// ConsumerOption configures one read.
type ConsumerOption func(*redis.XReadGroupArgs)

// WithBlock sets the maximum blocking duration when reading.
func WithBlock(d time.Duration) ConsumerOption {
	return func(args *redis.XReadGroupArgs) {
		if d > 0 {
			args.Block = d
		}
	}
}

// WithCount caps the number of messages returned in a single read.
func WithCount(n int64) ConsumerOption {
	return func(args *redis.XReadGroupArgs) {
		if n > 0 {
			args.Count = n
		}
	}
}

func NewConsumer(client redis.Cmdable, registry *SchemaRegistry, group, name string) *Consumer {
	return &Consumer{client: client, registry: registry, group: group, name: name}
}

// EnsureGroup creates the consumer group if it does not exist. start is the
// first ID the group delivers; "0" replays history, "$" only new entries.
func EnsureGroup(ctx context.Context, client redis.Cmdable, stream, group, start string) error {
	if stream == "" || group == "" {
		return fmt.Errorf("stream and group must be provided")
	}
	if start == "" {
		start = "$"
	}
	if err := client.XGroupCreateMkStream(ctx, stream, group, start).Err(); err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		return fmt.Errorf("xgroup create: %w", err)
	}
	return nil
}

// Message is one consumed stream entry.
type Message struct {
	ID       string
	Envelope Envelope
}

// Read pulls undelivered entries. Entries that fail decoding or schema
// validation are acknowledged and skipped.
func (c *Consumer) Read(ctx context.Context, stream string, opts ...ConsumerOption) ([]Message, error) {
	if stream == "" {
		return nil, fmt.Errorf("stream name is required")
	}
	if c.group == "" || c.name == "" {
		return nil, fmt.Errorf("consumer group and name must be configured")
	}

	args := &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.name,
		Streams:  []string{stream, ">"},
		Block:    -1,
	}
	for _, opt := range opts {
		opt(args)
	}

	streams, err := c.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("xreadgroup: %w", err)
	}

	var out []Message
	for _, st := range streams {
		for _, msg := range st.Messages {
			if decoded, ok := c.decodeMessage(ctx, stream, msg); ok {
				out = append(out, decoded)
			}
		}
	}
	return out, nil
}

// Ack acknowledges processed message IDs.
func (c *Consumer) Ack(ctx context.Context, stream string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, c.group, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (c *Consumer) decodeMessage(ctx context.Context, stream string, msg redis.XMessage) (Message, bool) {
	raw, ok := msg.Values["envelope"]
	if !ok {
		_ = c.client.XAck(ctx, stream, c.group, msg.ID).Err()
		return Message{}, false
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			_ = c.client.XAck(ctx, stream, c.group, msg.ID).Err()
			return Message{}, false
		}
		data = b
	}

	env, err := UnmarshalEnvelope(data)
	if err != nil {
		_ = c.client.XAck(ctx, stream, c.group, msg.ID).Err()
		return Message{}, false
	}
	if c.registry != nil {
		if err := c.registry.Validate(env.EventType, env.PayloadVersion, env.Data); err != nil {
			_ = c.client.XAck(ctx, stream, c.group, msg.ID).Err()
			return Message{}, false
		}
	}
	return Message{ID: msg.ID, Envelope: env}, true
}
