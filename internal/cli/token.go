package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"quiz-session-engine/internal/config"
	transport "quiz-session-engine/internal/transport/http"
)

// NewTokenCmd issues a bearer token for a player.
func NewTokenCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "token <username>",
		Short: "Issue a bearer token for a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("auth secret not configured")
			}
			issuer := transport.NewTokenIssuer(cfg.Auth.Secret, config.TTLDuration(cfg.Auth.TokenTTL, 24*time.Hour))
			token, err := issuer.Issue(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}
