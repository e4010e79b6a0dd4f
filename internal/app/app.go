// Package app monta os componentes e executa cada subcomando.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"

	"pricing-service/config"
	"pricing-service/internal/bot"
	"pricing-service/internal/database"
	"pricing-service/internal/logger"
	"pricing-service/internal/metrics"
	"pricing-service/internal/monitor"
	"pricing-service/internal/notify"
	"pricing-service/internal/scraper"
	"pricing-service/internal/security"
	"pricing-service/internal/service"
	"pricing-service/internal/web"
)

// Run é o ponto de entrada; args é os.Args[1:].
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.SetupDefault(w, logger.ParseLevel(cfg.LogLevel))
	log.Info("starting application", slog.String("command", string(cmd)))

	if cmd == CommandMigrate {
		return database.RunMigrations(cfg.DatabasePath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := build(cfg, log)
	if err != nil {
		return err
	}
	defer c.db.Close()

	switch cmd {
	case CommandCheck:
		return runCheck(ctx, c)
	case CommandWorker:
		return runWorker(ctx, c)
	default:
		return runServe(ctx, c)
	}
}

// components são as peças compartilhadas pelos subcomandos.
type components struct {
	cfg      *config.Config
	log      *slog.Logger
	db       *database.DB
	registry *prometheus.Registry
	users    *service.Users
	stores   *service.Stores
	items    *service.Items
	alerts   *service.Alerts
	monitor  *monitor.Monitor
	telegram *tgbotapi.BotAPI
}

func build(cfg *config.Config, log *slog.Logger) (*components, error) {
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	fetcher := scraper.NewFetcher(security.NewFetchClient(cfg.FetchTimeout, cfg.FetchAllowPrivate), cfg.FetchMaxSize)
	repos := service.NewRepos(db)
	users := service.NewUsers(repos, cfg.SessionMaxAge)
	stores := service.NewStores(repos)
	items := service.NewItems(repos, fetcher)
	alerts := service.NewAlerts(repos, stores, items, service.AlertsConfig{AllowPrivateURLs: cfg.FetchAllowPrivate}, log)

	var dispatchers notify.Multi
	if cfg.MailgunEnabled() {
		dispatchers = append(dispatchers, notify.NewMailgun(notify.MailgunConfig{
			APIKey:  cfg.MailgunAPIKey,
			Domain:  cfg.MailgunDomain,
			APIBase: cfg.MailgunAPIBase,
			From:    cfg.MailFrom,
		}, nil))
	}

	var telegram *tgbotapi.BotAPI
	if cfg.TelegramEnabled() {
		telegram, err = bot.Init(cfg.TelegramBotToken)
		if err != nil {
			db.Close()
			return nil, err
		}
		dispatchers = append(dispatchers, bot.NewDispatcher(telegram, cfg.TelegramChatID))
	}
	if len(dispatchers) == 0 {
		log.Warn("no notification channel configured; triggered alerts are recorded as skipped")
	}

	mon := monitor.New(alerts, items, users, monitor.NewEvaluator(dispatchers), collector, log, cfg.CheckInterval)

	return &components{
		cfg:      cfg,
		log:      log,
		db:       db,
		registry: registry,
		users:    users,
		stores:   stores,
		items:    items,
		alerts:   alerts,
		monitor:  mon,
		telegram: telegram,
	}, nil
}

func runCheck(ctx context.Context, c *components) error {
	outcomes, err := c.monitor.RunOnce(ctx)
	if err != nil {
		return err
	}
	for _, out := range outcomes {
		if out.Err != nil {
			c.log.Warn("alert not checked", slog.String("alert_id", out.AlertID), slog.String("error", out.Err.Error()))
		}
	}
	return nil
}

// startBackground sobe o lote agendado e o bot; retorna quando ctx termina.
func startBackground(ctx context.Context, c *components) <-chan error {
	done := make(chan error, 1)
	if c.telegram != nil {
		handler := bot.NewHandler(c.telegram, c.alerts, c.monitor, c.cfg.TelegramChatID, c.log)
		go handler.Listen(ctx, c.telegram)
	}
	go func() { done <- c.monitor.Start(ctx) }()
	return done
}

func runWorker(ctx context.Context, c *components) error {
	c.log.Info("worker starting", slog.Duration("check_interval", c.cfg.CheckInterval))
	return <-startBackground(ctx, c)
}

func runServe(ctx context.Context, c *components) error {
	limiter := web.NewRateLimiter(c.cfg.LoginRate)
	defer limiter.Stop()

	router := web.NewRouter(web.RouterDeps{
		Users:        c.users,
		Stores:       c.stores,
		Alerts:       c.alerts,
		Items:        c.items,
		DB:           c.db,
		Gatherer:     c.registry,
		RateLimiter:  limiter,
		Logger:       c.log,
		AdminEmail:   c.cfg.AdminEmail,
		CookieSecure: c.cfg.CookieSecure,
	})

	server := &http.Server{
		Addr:              ":" + c.cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	background := startBackground(ctx, c)

	serverErr := make(chan error, 1)
	go func() {
		c.log.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("server listen: %w", err)
	}

	c.log.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return <-background
}
