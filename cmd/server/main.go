package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	aai "breachmonitor/internal/adapters/assemblyai"
	"breachmonitor/internal/adapters/demo"
	"breachmonitor/internal/adapters/hibp"
	httpadapter "breachmonitor/internal/adapters/http"
	"breachmonitor/internal/adapters/mail"
	"breachmonitor/internal/adapters/natsbus"
	"breachmonitor/internal/adapters/notify"
	pg "breachmonitor/internal/adapters/postgres"
	"breachmonitor/internal/adapters/sqlite"
	"breachmonitor/internal/config"
	"breachmonitor/internal/ports"
	"breachmonitor/internal/services/alerting"
	"breachmonitor/internal/services/breachstate"
	"breachmonitor/internal/services/monitoring"
	"breachmonitor/internal/workers/recheckrunner"
)

func main() {
	cfg, cfgErr := config.Load()

	log, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	if cfgErr != nil {
		log.Warn("configuration warning", zap.Error(cfgErr))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("store init failed", zap.Error(err))
	}
	defer closeStore()

	breaches, err := breachSource(cfg, log)
	if err != nil {
		log.Fatal("breach source init failed", zap.Error(err))
	}
	engine := breachstate.New(breaches, hibp.NewPasswordClient(),
		breachstate.WithPolicy(breachstate.Policy{Timeout: cfg.UpstreamTimeout, Retries: cfg.UpstreamRetries}),
		breachstate.WithLogger(log.Named("breachstate")))

	notifier, closeNotifier := buildNotifier(cfg, log)
	defer closeNotifier()

	var summarizer ports.RiskSummarizer
	if s := aai.New(aai.Options{APIKey: cfg.AAIAPIKey, Model: cfg.AAIModel}); s != nil {
		summarizer = s
	}
	alerts := alerting.New(summarizer, notifier, alerting.Config{SiteName: cfg.AlertFromName}, log.Named("alerting"))

	monitor := monitoring.New(store, engine,
		monitoring.WithWorkers(cfg.RecheckWorkers),
		monitoring.WithDispatcher(alerts),
		monitoring.WithLogger(log.Named("monitoring")))

	srv := httpadapter.New(engine, alerts, monitor, log.Named("http"))
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.RecheckInterval > 0 {
		go recheckrunner.Every(ctx, cfg.RecheckInterval, log, func(ctx context.Context) error {
			_, err := monitor.RecheckAll(ctx)
			return err
		})
		log.Info("periodic recheck enabled", zap.Duration("interval", cfg.RecheckInterval))
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()
	log.Info("listening", zap.String("addr", cfg.ListenAddr))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
		shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

type store interface {
	ports.MonitoringRepository
	Migrate(ctx context.Context) error
}

// openStore prefers Postgres when DATABASE_URL is set, otherwise Turso or a
// local SQLite file.
func openStore(ctx context.Context, cfg config.Config, log *zap.Logger) (store, func(), error) {
	if cfg.DatabaseURL != "" {
		db, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("store ready", zap.String("backend", "postgres"))
		return db, db.Close, nil
	}
	db, err := sqlite.Open(ctx, sqlite.Options{Path: cfg.SQLitePath, TursoURL: cfg.TursoURL, TursoToken: cfg.TursoToken})
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if cfg.TursoURL != "" && !db.UseTurso {
		log.Warn("Turso unreachable, using local SQLite", zap.String("path", cfg.SQLitePath))
	}
	log.Info("store ready", zap.String("backend", db.Info()))
	return db, func() { _ = db.Close() }, nil
}

func breachSource(cfg config.Config, log *zap.Logger) (ports.BreachSource, error) {
	if cfg.HIBPAPIKey != "" {
		log.Info("breach source", zap.String("source", "hibp"))
		return hibp.NewBreachClient(cfg.HIBPAPIKey, cfg.HIBPUserAgent), nil
	}
	src, err := demo.Load(cfg.DemoBreachesPath)
	if err != nil {
		return nil, err
	}
	log.Info("breach source", zap.String("source", "demo"), zap.Int("fixtures", src.Len()))
	return src, nil
}

// buildNotifier fans alerts out to email and, when configured, NATS.
func buildNotifier(cfg config.Config, log *zap.Logger) (ports.Notifier, func()) {
	var notifiers []ports.Notifier
	if cfg.ResendAPIKey != "" {
		notifiers = append(notifiers, mail.NewResendNotifier(cfg.ResendAPIKey, cfg.EmailUser, cfg.AlertFromName))
	} else {
		notifiers = append(notifiers, &mail.SMTPNotifier{
			Addr: cfg.SMTPAddr, User: cfg.EmailUser, Password: cfg.EmailPass, FromName: cfg.AlertFromName,
		})
	}
	closer := func() {}
	if cfg.NATSURL != "" {
		pub, err := natsbus.NewPublisher(cfg.NATSURL)
		if err != nil {
			log.Warn("nats unavailable, alerts will not be published", zap.Error(err))
		} else {
			notifiers = append(notifiers, pub)
			closer = pub.Close
		}
	}
	return notify.NewFanout(log.Named("notify"), notifiers...), closer
}
