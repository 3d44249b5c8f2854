package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"radiantbloom/internal/api"
	"radiantbloom/internal/availability"
	"radiantbloom/internal/config"
	"radiantbloom/internal/database"
	"radiantbloom/internal/domain"
	"radiantbloom/internal/events"
	"radiantbloom/internal/export"
	"radiantbloom/internal/google"
	"radiantbloom/internal/logging"
	"radiantbloom/internal/metrics"
	"radiantbloom/internal/models"
	"radiantbloom/internal/notify"
	"radiantbloom/internal/repository"
	"radiantbloom/internal/service"
	"radiantbloom/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	locker := buildLocker(redisClient, &logger)

	eventBus := events.NewEventBus()

	sheetsService := initGoogleSheets(cfg, &logger)
	syncWorker := initSyncWorker(ctx, cfg, db, sheetsService, redisClient, &logger)

	builder := availability.NewBuilder(db, &logger)
	bookingSvc := service.NewBookingService(db, builder, locker, eventBus, syncWorker, &logger)
	catalogSvc := service.NewCatalogService(db, eventBus, &logger)
	scheduleSvc := service.NewScheduleService(db, &logger)
	exporter := export.NewExporter(db, cfg.Exports.Path, &logger)

	if err := seedCatalog(ctx, cfg, catalogSvc, &logger); err != nil {
		return err
	}

	attachNotifications(cfg, db, eventBus, &logger)

	startMetrics(ctx, cfg, &logger)

	httpServer := api.NewHTTPServer(cfg.API, catalogSvc, bookingSvc, scheduleSvc, exporter, locker, &logger)
	return serve(ctx, httpServer, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// seedCatalog loads the service catalog from the config plus an
// optional standalone seed file, then warms the in-memory cache.
func seedCatalog(ctx context.Context, cfg *config.Config, catalog *service.CatalogService, logger *zerolog.Logger) error {
	seed := cfg.Services

	seedPath := os.Getenv("SERVICES_PATH")
	if seedPath == "" {
		seedPath = "configs/services.yaml"
	}
	if data, err := os.ReadFile(seedPath); err == nil {
		var seedFile struct {
			Services []models.Service `yaml:"services"`
		}
		if err := yaml.Unmarshal(data, &seedFile.Services); err != nil {
			// Пробуем формат с верхнеуровневым ключом services.
			if err := yaml.Unmarshal(data, &seedFile); err != nil {
				logger.Error().Err(err).Str("services_path", seedPath).Msg("parse services seed")
				return err
			}
		}
		if err := config.ValidateServices(seedFile.Services); err != nil {
			return err
		}
		seed = append(seed, seedFile.Services...)
	} else if !os.IsNotExist(err) {
		logger.Error().Err(err).Str("services_path", seedPath).Msg("read services seed")
		return err
	}

	if err := catalog.SeedServices(ctx, seed); err != nil {
		return err
	}
	return catalog.Refresh(ctx)
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// buildLocker returns redis-backed slot locking with in-memory
// failover, or pure in-memory locking when redis is not configured.
func buildLocker(redisClient *redis.Client, logger *zerolog.Logger) domain.SlotRateLimiter {
	memory := repository.NewMemorySlotLocker()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverSlotLocker(repository.NewRedisSlotLocker(redisClient), memory, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.BookingSpreadSheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func initSyncWorker(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	sheets *google.SheetsService,
	redisClient *redis.Client,
	logger *zerolog.Logger,
) domain.SyncWorker {
	if !cfg.Worker.Enabled || sheets == nil {
		return nil
	}

	syncWorker := worker.NewSheetsWorker(db, sheets, redisClient, worker.RetryPolicy{
		MaxRetries: cfg.Worker.MaxRetries,
	}, logger)
	go syncWorker.Start(ctx)
	return syncWorker
}

// attachNotifications wires the e-mail and chat side effects to the
// booking event stream.
func attachNotifications(cfg *config.Config, db *database.DB, bus *events.EventBus, logger *zerolog.Logger) {
	var mailer domain.Mailer
	if cfg.Notifications.SMTP.Host != "" {
		mailer = notify.NewSMTPMailer(cfg.Notifications.SMTP)
	}

	var admin domain.AdminNotifier
	if cfg.Notifications.Telegram.BotToken != "" {
		notifier, err := notify.NewTelegramNotifier(cfg.Notifications.Telegram)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without chat alerts")
		} else {
			admin = notifier
		}
	}

	if mailer == nil && admin == nil {
		logger.Info().Msg("notifications are not configured")
		return
	}

	dispatcher := notify.NewDispatcher(db, mailer, admin, cfg.Notifications.AdminEmail, logger)
	dispatcher.Attach(bus)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
