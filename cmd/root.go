package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mohammad-safakhou/careerdesk/config"
	"github.com/mohammad-safakhou/careerdesk/internal/runtime"
	"github.com/spf13/cobra"
)

var cfgPath string

// Execute runs the careerdesk CLI.
func Execute() {
	root := &cobra.Command{
		Use:           "careerdesk",
		Short:         "Career assistant: job search, resume analysis, cover letters",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (default is ./config/config.json)")

	root.AddCommand(serveCMD(), chatCMD(), searchCMD(), tokenCMD(), eventsCMD())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadApp(ctx context.Context, opts runtime.AppOptions) (*runtime.App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	return runtime.NewApp(ctx, cfg, opts)
}
