package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/HumanCheck/internal/adapter/email"
	"github.com/Strob0t/HumanCheck/internal/adapter/frameworks"
	hchttp "github.com/Strob0t/HumanCheck/internal/adapter/http"
	hcmcp "github.com/Strob0t/HumanCheck/internal/adapter/mcp"
	hcnats "github.com/Strob0t/HumanCheck/internal/adapter/nats"
	"github.com/Strob0t/HumanCheck/internal/adapter/postgres"
	"github.com/Strob0t/HumanCheck/internal/adapter/ristretto"
	"github.com/Strob0t/HumanCheck/internal/config"
	"github.com/Strob0t/HumanCheck/internal/logger"
	"github.com/Strob0t/HumanCheck/internal/port/framework"
	"github.com/Strob0t/HumanCheck/internal/port/messagequeue"
	"github.com/Strob0t/HumanCheck/internal/port/notifier"
	"github.com/Strob0t/HumanCheck/internal/service"

	// Notifier factories register themselves by name.
	_ "github.com/Strob0t/HumanCheck/internal/adapter/discord"
	_ "github.com/Strob0t/HumanCheck/internal/adapter/slack"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"nats_enabled", cfg.NATS.Enabled,
		"mcp_enabled", cfg.MCP.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	store := postgres.NewStore(pool)

	var queue messagequeue.Queue
	if cfg.NATS.Enabled {
		q, err := hcnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() {
			if err := q.Drain(); err != nil {
				slog.Warn("nats drain failed", "error", err)
			}
		}()
		queue = q
		slog.Info("nats connected", "url", cfg.NATS.URL)
	}

	rulesCache, err := ristretto.New(cfg.Routing.RuleCacheSizeMB << 20)
	if err != nil {
		return fmt.Errorf("rules cache: %w", err)
	}
	defer rulesCache.Close()

	// --- Framework adapters ---

	registry := framework.NewRegistry()
	for _, a := range []framework.Adapter{
		frameworks.NewRest(store, cfg.Blocking.Rest.Timeout, cfg.Blocking.Rest.PollInterval),
		frameworks.NewMCP(store, cfg.Blocking.MCP.Timeout, cfg.Blocking.MCP.PollInterval),
		frameworks.NewLangChain(store, cfg.Blocking.LangChain.Timeout, cfg.Blocking.LangChain.PollInterval),
		frameworks.NewHITL(store, cfg.Blocking.HITL.Timeout, cfg.Blocking.HITL.PollInterval),
		frameworks.NewWorkflow(store, cfg.Blocking.Workflow.Timeout, cfg.Blocking.Workflow.PollInterval),
	} {
		if err := registry.Register(a); err != nil {
			return fmt.Errorf("register adapter: %w", err)
		}
	}
	slog.Info("framework adapters registered", "frameworks", registry.Names())

	// --- Notifications ---

	notifySvc, err := buildNotifications(cfg.Notifications)
	if err != nil {
		return fmt.Errorf("notifications: %w", err)
	}

	// --- Services ---

	routerSvc := service.NewRouterService(store, cfg.Routing.DefaultReviewers, rulesCache, cfg.Routing.RuleCacheTTL)
	reviewSvc := service.NewReviewService(store, registry, routerSvc, queue, notifySvc)

	// --- HTTP ---

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(hchttp.RequestID)
	r.Use(hchttp.Logger)
	r.Use(hchttp.SecurityHeaders)
	r.Use(hchttp.CORS(cfg.Server.CORSOrigin))

	hchttp.MountRoutes(r, hchttp.NewHandlers(reviewSvc, routerSvc))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No write timeout: blocking submissions hold the response open for
		// up to the configured adapter budget (minutes).
		IdleTimeout: 120 * time.Second,
	}

	// --- MCP ---

	var mcpServer *hcmcp.Server
	if cfg.MCP.Enabled {
		mcpServer = hcmcp.NewServer(
			hcmcp.ServerConfig{
				Addr:    ":" + cfg.MCP.Port,
				Name:    "humancheck",
				Version: version,
				APIKey:  cfg.MCP.APIKey,
			},
			hcmcp.ServerDeps{
				Submitter:  reviewSvc,
				Reader:     reviewSvc,
				Decider:    reviewSvc,
				Frameworks: reviewSvc,
			},
		)
		if err := mcpServer.Start(); err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if mcpServer != nil {
			if err := mcpServer.Stop(shutdownCtx); err != nil {
				slog.Warn("mcp shutdown failed", "error", err)
			}
		}
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildNotifications assembles the configured notification channels: webhook
// broadcasters by registered provider name, plus direct reviewer email when
// SMTP is enabled.
func buildNotifications(cfg config.Notifications) (*service.NotificationService, error) {
	var broadcast []notifier.Notifier
	webhooks := map[string]string{
		"slack":   cfg.SlackWebhookURL,
		"discord": cfg.DiscordWebhookURL,
	}
	for name, url := range webhooks {
		if url == "" {
			continue
		}
		n, err := notifier.New(name, map[string]string{"webhook_url": url})
		if err != nil {
			return nil, err
		}
		broadcast = append(broadcast, n)
		slog.Info("notifier configured", "provider", name)
	}

	var direct notifier.DirectNotifier
	if cfg.SMTP.Enabled {
		direct = email.NewNotifier(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			From:     cfg.SMTP.From,
			Password: cfg.SMTP.Password,
		})
		slog.Info("notifier configured", "provider", "email", "host", cfg.SMTP.Host)
	}

	if len(broadcast) == 0 && direct == nil {
		return nil, nil
	}
	return service.NewNotificationService(broadcast, direct), nil
}
