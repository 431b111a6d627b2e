package cmd

import (
	"fmt"
	"time"

	"github.com/mohammad-safakhou/careerdesk/config"
	"github.com/mohammad-safakhou/careerdesk/internal/runtime"
	"github.com/spf13/cobra"
)

func tokenCMD() *cobra.Command {
	var subject string
	var ttl time.Duration
	token := &cobra.Command{
		Use:   "token",
		Short: "Mint an API bearer token signed with server.jwt_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			secret, err := runtime.LoadJWTSecret(cfg)
			if err != nil {
				return err
			}
			tok, err := runtime.SignJWT(subject, secret, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	token.Flags().StringVarP(&subject, "subject", "s", "", "token subject (owns the chat sessions it creates)")
	token.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	_ = token.MarkFlagRequired("subject")
	return token
}
