package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/mohammad-safakhou/careerdesk/config"
	"github.com/mohammad-safakhou/careerdesk/internal/queue/streams"
	"github.com/mohammad-safakhou/careerdesk/internal/runtime"
	"github.com/spf13/cobra"
)

func eventsCMD() *cobra.Command {
	var group, consumer, from string
	var follow bool
	events := &cobra.Command{
		Use:   "events",
		Short: "Print fault events published to the Redis stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			runtime.SetupLogger(cfg, cmd.ErrOrStderr(), false)
			client, err := runtime.OpenRedis(ctx, cfg.Storage.Redis)
			if err != nil {
				return err
			}
			defer client.Close()
			reg, err := runtime.InitSchemaRegistry()
			if err != nil {
				return err
			}

			stream := cfg.Telemetry.FaultStream
			if err := streams.EnsureGroup(ctx, client, stream, group, from); err != nil {
				return err
			}
			c := streams.NewConsumer(client, reg, group, consumer)
			return tail(ctx, c, stream, cmd.OutOrStdout(), follow)
		},
	}
	f := events.Flags()
	f.StringVar(&group, "group", "careerdesk-cli", "consumer group")
	f.StringVar(&consumer, "consumer", "cli", "consumer name")
	f.StringVar(&from, "from", "0", "first entry id for a new group (0 replays, $ only new)")
	f.BoolVarP(&follow, "follow", "f", false, "keep waiting for new events")
	return events
}

// tail prints one JSON line per envelope and acks it. Without follow it stops
// at the first empty read.
func tail(ctx context.Context, c *streams.Consumer, stream string, out io.Writer, follow bool) error {
	enc := json.NewEncoder(out)
	for ctx.Err() == nil {
		var opts []streams.ConsumerOption
		if follow {
			opts = append(opts, streams.WithBlock(5*time.Second))
		}
		msgs, err := c.Read(ctx, stream, append(opts, streams.WithCount(100))...)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if len(msgs) == 0 && !follow {
			return nil
		}
		ids := make([]string, 0, len(msgs))
		for _, m := range msgs {
			if err := enc.Encode(m.Envelope); err != nil {
				return fmt.Errorf("write event: %w", err)
			}
			ids = append(ids, m.ID)
		}
		if err := c.Ack(ctx, stream, ids...); err != nil {
			return err
		}
	}
	return nil
}
