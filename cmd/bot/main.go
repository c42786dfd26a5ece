package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"giveawaybot/internal/config"
	"giveawaybot/internal/handler"
	"giveawaybot/internal/i18n"
	"giveawaybot/internal/metrics"
	"giveawaybot/internal/registry"
	"giveawaybot/internal/repository"
	"giveawaybot/internal/repository/file"
	"giveawaybot/internal/repository/postgres"
	"giveawaybot/internal/service"
	"giveawaybot/internal/telegram"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"
	"k8s.io/utils/clock"
)

const (
	cacheSize       = 1024
	shutdownTimeout = 10 * time.Second
	cleanupInterval = 24 * time.Hour
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Giveaway Bot", zap.String("storage", cfg.Storage))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer closeStore()

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(promRegistry)

	clk := clock.RealClock{}
	reg := registry.New(registry.Options{
		Store:       store,
		Clock:       clk,
		Logger:      logger,
		Metrics:     m,
		SaveTimeout: cfg.SaveTimeout,
	})
	if err := reg.Load(ctx); err != nil {
		logger.Fatal("Failed to load state", zap.Error(err))
	}

	logger.Info("State loaded", zap.Int("open_giveaways", len(reg.OpenIDs())))

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("Handler error", zap.Error(err))
		},
	})
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	logger.Info("Telegram bot initialized", zap.String("username", bot.Me.Username))

	tr := i18n.NewTranslator(cfg.Locale, logger)
	notifier, err := telegram.NewNotifier(bot, telegram.NewRenderer(tr, clk), reg, cfg.DefaultBanner, cacheSize, logger)
	if err != nil {
		logger.Fatal("Failed to create notifier", zap.Error(err))
	}
	resolver, err := telegram.NewResolver(bot, cacheSize)
	if err != nil {
		logger.Fatal("Failed to create resolver", zap.Error(err))
	}

	// Initialize services
	authService := service.NewAuthService(reg, resolver, cfg.OwnerID, logger)
	giveawayService := service.NewGiveawayService(reg, notifier, m, logger)
	wizardService := service.NewWizardService(reg, notifier, clk, m, logger)
	cleanupService := service.NewCleanupService(reg, clk, cfg.Retention, logger)
	loop := service.NewReconcileService(reg, notifier, clk, service.ReconcileConfig{
		PollInterval:    cfg.Loop.PollInterval,
		RefreshInterval: cfg.Loop.RefreshInterval,
		RefreshPacing:   cfg.Loop.RefreshPacing,
	}, m, logger)

	// Initialize handler
	h := handler.NewHandler(bot, authService, giveawayService, wizardService, tr, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Bot started successfully")
		bot.Start()
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, stopping bot...")
		bot.Stop()
		return nil
	})
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		runCleanupJob(gctx, cleanupService, logger)
		return nil
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, promRegistry, logger)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("Component failed", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := reg.Flush(flushCtx); err != nil {
		logger.Error("Failed to save state on shutdown", zap.Error(err))
	}

	logger.Info("Bot stopped gracefully")
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// openStore builds the configured snapshot store and its cleanup func
func openStore(cfg *config.Config, logger *zap.Logger) (repository.SnapshotStore, func(), error) {
	if cfg.Storage != config.DriverPostgres {
		logger.Info("Using file storage", zap.String("path", cfg.DataFile))
		return file.NewSnapshotRepo(cfg.DataFile), func() {}, nil
	}

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("Database connection established")

	if err := runMigrations(db, logger); err != nil {
		db.Close()
		return nil, nil, err
	}

	return postgres.NewSnapshotRepo(db), func() { db.Close() }, nil
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// runCleanupJob prunes old finished giveaways once at startup and then daily
func runCleanupJob(ctx context.Context, cleanupService *service.CleanupService, logger *zap.Logger) {
	cleanupService.CleanupOldData()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup job stopped")
			return
		case <-ticker.C:
			logger.Info("Running scheduled cleanup")
			cleanupService.CleanupOldData()
		}
	}
}

// serveMetrics exposes /metrics until ctx is done
func serveMetrics(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
