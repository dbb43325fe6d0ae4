// Command walletctl seeds user stores, issues agent tokens and runs ad-hoc lookups.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safepay/wallet-api/internal/config"
	"github.com/safepay/wallet-api/internal/pkg/logger"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "walletctl",
		Short:         "walletctl - operator tooling for the SafePay wallet service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Output: os.Stderr})
		},
	}

	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(lookupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
