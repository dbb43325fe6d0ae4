package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/safepay/wallet-api/internal/config"
	"github.com/safepay/wallet-api/internal/domain/instrument"
	"github.com/safepay/wallet-api/internal/domain/payment"
	"github.com/safepay/wallet-api/internal/middleware"
	"github.com/safepay/wallet-api/internal/pkg/errorhandler"
	"github.com/safepay/wallet-api/internal/pkg/jwt"
	"github.com/safepay/wallet-api/internal/pkg/logger"
	"github.com/safepay/wallet-api/internal/pkg/metrics"
	"github.com/safepay/wallet-api/internal/pkg/reqctx"
	pkgresponse "github.com/safepay/wallet-api/internal/pkg/response"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env})

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("provider", cfg.Provider).
		Msg("Starting SafePay Wallet API")

	provider, closeProvider, err := instrument.NewProvider(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise user provider")
	}
	defer closeProvider()

	ids, err := reqctx.NewGenerator(cfg.RequestIDFormat, cfg.NodeID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise request id generator")
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	var jwtService *jwt.Service
	if cfg.AuthEnabled() {
		jwtService = jwt.NewService(cfg.AgentJWTSecret, cfg.AgentTokenTTL)
	} else {
		log.Warn().Msg("AGENT_JWT_SECRET not set, caller auth disabled")
	}

	svc := payment.NewService(provider,
		payment.WithTimeout(cfg.ProviderTimeout),
		payment.WithProviderName(cfg.Provider),
		payment.WithMetrics(m),
		payment.WithIDGenerator(ids),
	)

	r := newRouter(cfg, svc, ids, m, jwtService)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}

// newRouter wires middleware and routes. m and jwtService may be nil.
func newRouter(cfg *config.Config, svc *payment.Service, ids reqctx.IDGenerator, m *metrics.Metrics, jwtService *jwt.Service) http.Handler {
	errs := errorhandler.New(m)

	r := chi.NewRouter()
	r.NotFound(pkgresponse.NotFound)
	r.MethodNotAllowed(pkgresponse.MethodNotAllowed)

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestContext(ids, reqctx.SystemClock))
	r.Use(middleware.Logger)
	r.Use(middleware.Recover(errs))
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":   "ok",
			"version":  version,
			"provider": cfg.Provider,
		})
	})

	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	paymentHandler := payment.NewHandler(svc, errs)
	var api chi.Router
	if jwtService != nil {
		api = paymentHandler.Routes(middleware.Auth(jwtService), middleware.RequireScope)
	} else {
		api = paymentHandler.Routes(nil, nil)
	}
	api.NotFound(pkgresponse.NotFound)
	api.MethodNotAllowed(pkgresponse.MethodNotAllowed)
	r.Mount("/api/v1", middleware.Timeout(cfg.ProviderTimeout+5*time.Second)(api))

	return r
}
