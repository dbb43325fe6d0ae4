package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/safepay/wallet-api/internal/config"
	"github.com/safepay/wallet-api/internal/pkg/jwt"
)

func tokenCmd() *cobra.Command {
	var (
		agentID string
		scopes  []string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an agent token signed with AGENT_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if !cfg.AuthEnabled() {
				return errors.New("AGENT_JWT_SECRET is not set")
			}
			if ttl <= 0 {
				ttl = cfg.AgentTokenTTL
			}

			token, err := jwt.NewService(cfg.AgentJWTSecret, ttl).GenerateAgentToken(agentID, scopes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVarP(&agentID, "agent-id", "a", "", "identifier of the calling agent")
	cmd.Flags().StringSliceVarP(&scopes, "scope", "s", nil, "scopes to grant (default: all)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default: AGENT_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("agent-id")

	return cmd
}
