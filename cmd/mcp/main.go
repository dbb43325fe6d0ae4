// Command mcp serves the payment tools to an agent over stdio.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/safepay/wallet-api/internal/config"
	"github.com/safepay/wallet-api/internal/domain/instrument"
	"github.com/safepay/wallet-api/internal/domain/payment"
	"github.com/safepay/wallet-api/internal/pkg/errorhandler"
	"github.com/safepay/wallet-api/internal/pkg/logger"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
	"github.com/safepay/wallet-api/internal/transport/mcp"
)

func main() {
	cfg := config.Load()
	// stdout carries the protocol; logs go to stderr.
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, closeProvider, err := instrument.NewProvider(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise user provider")
	}
	defer closeProvider()

	ids, err := reqctx.NewGenerator(cfg.RequestIDFormat, cfg.NodeID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise request id generator")
	}

	svc := payment.NewService(provider,
		payment.WithTimeout(cfg.ProviderTimeout),
		payment.WithProviderName(cfg.Provider),
		payment.WithIDGenerator(ids),
	)
	server := mcp.NewServer(mcp.NewToolHandler(svc, errorhandler.New(nil), ids, reqctx.SystemClock))

	log.Info().Str("provider", cfg.Provider).Msg("MCP server listening on stdio")
	if err := server.Run(ctx, os.Stdin, os.Stdout); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("MCP server stopped")
		closeProvider()
		os.Exit(1)
	}
}
