package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mohammad-safakhou/careerdesk/internal/runtime"
	srv "github.com/mohammad-safakhou/careerdesk/internal/server"
	"github.com/spf13/cobra"
)

const janitorInterval = time.Minute

func serveCMD() *cobra.Command {
	var serveAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := loadApp(ctx, runtime.AppOptions{})
			if err != nil {
				return err
			}
			if serveAddr != "" {
				app.Config.Server.Address = serveAddr
			}
			go app.Sessions.Janitor(ctx, janitorInterval)

			runErr := srv.Run(ctx, app)
			closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return errors.Join(runErr, app.Close(closeCtx))
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	return serve
}
