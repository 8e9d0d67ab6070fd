package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fairrent/internal/config"
	"fairrent/internal/handler"
	"fairrent/internal/logger"
	"fairrent/internal/render"
	"fairrent/internal/repository"
	"fairrent/internal/service"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = log.Sync() }()

	log.Info("Fair Rent Advisor",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit))

	gin.SetMode(cfg.Server.GinMode)

	catalog, err := service.LoadLocationCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("failed to load location catalog: %w", err)
	}
	log.Info("location catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("cities", len(catalog.Cities())))

	deps := service.Dependencies{
		Valuation: service.NewHTTPValuationBackend(cfg.Valuation.URL, config.Seconds(cfg.Valuation.Timeout)),
		Assistant: service.NewHTTPAssistantBackend(cfg.Assistant.URL, config.Seconds(cfg.Assistant.Timeout)),
		Persona:   cfg.Assistant.Persona,
		Logger:    log,
	}

	// Optional event log
	if cfg.PostgreSQL.Enabled {
		repo, err := repository.NewPostgresRepository(
			cfg.GetPostgreSQLDSN(),
			cfg.PostgreSQL.MaxConnections,
			cfg.PostgreSQL.MaxIdleConnections,
		)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer repo.Close()

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = repo.Migrate(migrateCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to migrate event log: %w", err)
		}
		deps.Events = repo
		log.Info("event log connected to PostgreSQL")
	} else {
		log.Info("event log disabled, set EVENT_LOG_ENABLED=true to record requests")
	}

	// Built-in strategist behind /chat
	var assistant handler.StreamingAssistant
	if cfg.OpenAI.Enabled {
		client := service.NewOpenAIClient(&cfg.OpenAI, log)
		assistant = service.NewStrategist(client, cfg.Assistant.Persona, log)
		log.Info("strategist backend enabled",
			zap.String("api_base", cfg.OpenAI.APIBase),
			zap.String("chat_model", cfg.OpenAI.ChatModel),
			zap.Float64("temperature", cfg.OpenAI.ChatTemperature),
			zap.Int("max_tokens", cfg.OpenAI.ChatMaxTokens))
	} else {
		log.Warn("OpenAI is disabled, /chat is not served",
			zap.String("hint", "set OPENAI_API_KEY to enable the built-in strategist"))
	}

	sessions := service.NewSessionManager(deps, time.Duration(cfg.Session.IdleTTLMinutes)*time.Minute)

	router := handler.NewRouter(handler.RouterConfig{
		Sessions:       sessions,
		Catalog:        catalog,
		Renderer:       render.NewHTMLRenderer(),
		Assistant:      assistant,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Build:          handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit},
		Logger:         log,
	})
	setupStaticFiles(router, cfg.Server.WebDir, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return sessions.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
