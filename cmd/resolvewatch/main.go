package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liamashdown/resolvewatch/internal/alerts"
	"github.com/liamashdown/resolvewatch/internal/api"
	"github.com/liamashdown/resolvewatch/internal/config"
	"github.com/liamashdown/resolvewatch/internal/events"
	"github.com/liamashdown/resolvewatch/internal/gammaapi"
	"github.com/liamashdown/resolvewatch/internal/registry"
	"github.com/liamashdown/resolvewatch/internal/resolution"
	"github.com/liamashdown/resolvewatch/internal/resolver"
	"github.com/liamashdown/resolvewatch/internal/scheduler"
	"github.com/liamashdown/resolvewatch/internal/storage"
	"github.com/sirupsen/logrus"
)

func main() {
	// Initialize logger
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)

	log.Info("Starting resolvewatch service...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogger(log, cfg)

	log.WithFields(logrus.Fields{
		"environment":          cfg.Environment,
		"model":                cfg.AIModel,
		"scheduler_interval":   cfg.SchedulerInterval.String(),
		"confidence_threshold": cfg.ConfidenceThreshold,
		"max_attempts":         cfg.ResolutionMaxAttempts,
		"alert_mode":           cfg.AlertMode,
		"audit_mirror":         cfg.DatabaseDSN != "",
	}).Info("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewBus(log)
	subscribeEventLog(bus, log)

	// Market registry
	var markets *registry.Registry
	if cfg.SeedDemoMarkets {
		markets = registry.NewWithDemoMarkets(log)
	} else {
		markets = registry.New(log)
	}
	log.WithField("markets", markets.Count()).Info("Market registry initialized")

	// Resolution pipeline
	aiResolver := resolver.NewAIResolver(cfg)
	service := resolution.New(cfg, aiResolver, markets, bus, log)

	// Optional audit mirror
	var auditDB api.Pinger
	if cfg.DatabaseDSN != "" {
		db, err := storage.New(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to audit database")
		}
		defer db.Close()

		if err := db.AutoMigrate(); err != nil {
			log.WithError(err).Fatal("Failed to run database migrations")
		}
		storage.NewMirror(db, log).Subscribe(bus)
		auditDB = db
		log.Info("Audit mirror enabled")
	}

	// Notifications
	sender := createAlertSender(cfg, log)
	alerts.NewNotifier(sender, markets, cfg.Environment, log).Subscribe(bus)
	log.WithField("alert_mode", cfg.AlertMode).Info("Alert sender initialized")

	// Scheduler
	sched := scheduler.New(cfg.SchedulerInterval, markets, service, bus, log)

	// HTTP API
	if cfg.Environment == "development" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.New(ctx, api.Deps{
		Registry:  markets,
		Service:   service,
		Scheduler: sched,
		Gamma:     gammaapi.NewClient(cfg),
		AuditDB:   auditDB,
	}, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe(cfg.Port)
	}()

	sched.Start(ctx)

	// Wait for shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.WithField("signal", sig).Info("Received shutdown signal")
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Error("HTTP server failed")
		}
	}

	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("HTTP server shutdown failed")
	}

	cancel()
	log.Info("Graceful shutdown complete")
}

func configureLogger(log *logrus.Logger, cfg *config.Config) {
	if cfg.LogFormat == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("Invalid log level, using info")
		return
	}
	log.SetLevel(level)
}

// subscribeEventLog writes every lifecycle event to the log
func subscribeEventLog(bus *events.Bus, log *logrus.Logger) {
	entry := log.WithField("component", "events")
	handler := func(ctx context.Context, e events.Event) error {
		fields := logrus.Fields{
			"event":     e.Type,
			"market_id": e.MarketID,
		}
		if e.Resolution != nil {
			fields["outcome"] = e.Resolution.Outcome
			fields["confidence"] = e.Resolution.Confidence
		}
		if e.Error != "" {
			fields["error"] = e.Error
		}
		entry.WithFields(fields).Info("Lifecycle event")
		return nil
	}

	for _, t := range []events.Type{
		events.MarketClosed,
		events.ResolutionStarted,
		events.ResolutionCompleted,
		events.ResolutionFailed,
	} {
		bus.Subscribe(t, handler)
	}
}

func createAlertSender(cfg *config.Config, log *logrus.Logger) alerts.Sender {
	var senders []alerts.Sender

	for _, mode := range cfg.AlertModes() {
		switch mode {
		case "log":
			senders = append(senders, alerts.NewLogSender(log))
		case "discord":
			for _, url := range cfg.DiscordWebhookURLs {
				senders = append(senders, alerts.NewDiscordSender(url))
			}
		case "smtp":
			senders = append(senders, alerts.NewSMTPSender(
				cfg.SMTPHost,
				cfg.SMTPPort,
				cfg.SMTPUser,
				cfg.SMTPPassword,
				cfg.SMTPFrom,
				cfg.SMTPTo,
			))
		default:
			log.WithField("mode", mode).Warn("Unknown alert mode, skipping")
		}
	}

	switch len(senders) {
	case 0:
		log.Warn("No valid alert senders configured, using log")
		return alerts.NewLogSender(log)
	case 1:
		return senders[0]
	default:
		return alerts.NewMultiSender(senders...)
	}
}
