package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/IbkArotiba/AaroCare/internal/config"
	"github.com/IbkArotiba/AaroCare/internal/domain/account"
	"github.com/IbkArotiba/AaroCare/internal/domain/careteam"
	"github.com/IbkArotiba/AaroCare/internal/domain/notes"
	"github.com/IbkArotiba/AaroCare/internal/domain/patient"
	"github.com/IbkArotiba/AaroCare/internal/domain/stats"
	"github.com/IbkArotiba/AaroCare/internal/domain/treatment"
	"github.com/IbkArotiba/AaroCare/internal/domain/vitals"
	"github.com/IbkArotiba/AaroCare/internal/platform/audit"
	"github.com/IbkArotiba/AaroCare/internal/platform/auth"
	"github.com/IbkArotiba/AaroCare/internal/platform/cache"
	"github.com/IbkArotiba/AaroCare/internal/platform/db"
	"github.com/IbkArotiba/AaroCare/internal/platform/identity"
	"github.com/IbkArotiba/AaroCare/internal/platform/middleware"
	"github.com/IbkArotiba/AaroCare/internal/platform/sqlbridge"
	"github.com/IbkArotiba/AaroCare/internal/platform/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aarocare-server",
		Short: "AaroCare hospital management API server",
	}

	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the AaroCare API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	bridge := sqlbridge.NewClient(sqlbridge.NewPGStore(pool))
	recorder := audit.NewSQLRecorder(bridge, logger)

	// Cache is optional. Without Redis the dashboard counters recompute on
	// every request.
	var store cache.Cache = cache.Nop{}
	if cfg.RedisURL != "" {
		redis, err := cache.NewRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, caching disabled")
		} else {
			store = redis
			defer redis.Close()
			logger.Info().Msg("connected to redis")
		}
	}

	// Identity provider. Cognito backs credential flows in every deployed
	// environment; local development with AUTH_SIGNING_KEY still constructs
	// the client so registration fails loudly instead of silently.
	provider, err := identity.NewCognitoProvider(ctx, cfg.CognitoRegion, cfg.CognitoUserPoolID, cfg.CognitoClientID)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure identity provider")
	}

	// Repositories
	patientRepo := patient.NewSQLRepository(bridge)
	vitalsRepo := vitals.NewSQLRepository(bridge)
	notesRepo := notes.NewSQLRepository(bridge)
	careTeamRepo := careteam.NewSQLRepository(bridge)
	treatmentRepo := treatment.NewSQLRepository(bridge)
	accountRepo := account.NewSQLRepository(bridge)

	// Realtime hub
	hub := ws.NewHub(logger)

	// Services
	patientSvc := patient.NewService(patientRepo, recorder)
	vitalsSvc := vitals.NewService(vitalsRepo, patientRepo, recorder, hub)
	notesSvc := notes.NewService(notesRepo, accountRepo, recorder)
	careTeamSvc := careteam.NewService(careTeamRepo, accountRepo, patientRepo, recorder)
	treatmentSvc := treatment.NewService(treatmentRepo, accountRepo, patientRepo, db.NewTransactor(pool), recorder)
	accountSvc := account.NewService(accountRepo, provider, recorder)
	statsSvc := stats.NewService(patientRepo, notesSvc, store)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	authCfg := auth.Config{
		Issuer:     cfg.CognitoIssuer(),
		JWKSURL:    cfg.JWKSURL(),
		SigningKey: []byte(cfg.AuthSigningKey),
	}

	// Every /api request leaves a best-effort audit trail entry, failures
	// included.
	requestLog := audit.RequestLog(recorder)

	// Login and token refresh sit outside the JWT middleware.
	accountHandler := account.NewHandler(accountSvc)
	accountHandler.RegisterPublicRoutes(e.Group("/api", requestLog))

	// Everything else requires a verified bearer token.
	api := e.Group("/api", requestLog, auth.Middleware(authCfg))
	access := auth.RequirePatientAccess(careTeamSvc)

	accountHandler.RegisterRoutes(api)
	patient.NewHandler(patientSvc).RegisterRoutes(api, access, recorder)
	vitals.NewHandler(vitalsSvc).RegisterRoutes(api, access, recorder)
	notes.NewHandler(notesSvc).RegisterRoutes(api, access, recorder)
	careteam.NewHandler(careTeamSvc).RegisterRoutes(api, access)
	treatment.NewHandler(treatmentSvc).RegisterRoutes(api, access)
	stats.NewHandler(statsSvc).RegisterRoutes(api)

	// Websocket handshake carries its own token, so it stays off the group.
	ws.NewHandler(hub, auth.Verifier(authCfg)).RegisterRoutes(e.Group(""))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
