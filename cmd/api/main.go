package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labportal/internal/api"
	"labportal/internal/booking"
	"labportal/internal/config"
	"labportal/internal/database"
	"labportal/internal/domain"
	"labportal/internal/events"
	"labportal/internal/google"
	"labportal/internal/logging"
	"labportal/internal/metrics"
	"labportal/internal/models"
	"labportal/internal/notify"
	"labportal/internal/repository"
	"labportal/internal/service"
	"labportal/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	items, err := loadItems(cfg, &logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(ctx, cfg, items, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}

	bus := events.NewEventBus(logging.Component(&logger, "events"))
	if sheetsService := initGoogleSheets(ctx, cfg, &logger); sheetsService != nil {
		sheetsWorker := worker.NewSheetsWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, logging.Component(&logger, "sheets-worker"))
		sheetsWorker.Subscribe(bus)
		go sheetsWorker.Start(ctx)
	}

	bookingService, err := newBookingService(ctx, cfg, db, redisClient, bus, &logger)
	if err != nil {
		return err
	}
	itemService := service.NewItemService(db, logging.Component(&logger, "items"))

	backup := database.NewBackupService(db, cfg.Backup, &logger)
	go backup.Start(ctx)

	grpcServer, err := api.NewGRPCServer(&cfg.API, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}
	httpServer := api.NewHTTPServer(&cfg.API, bookingService, itemService, &logger)

	startMetrics(ctx, cfg, &logger)
	go watchDatabase(ctx, db, grpcServer, &logger)

	return startServers(ctx, grpcServer, httpServer, cfg, &logger)
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

// loadItems reads the catalog from ITEMS_PATH when set, otherwise from the main config.
func loadItems(cfg *config.Config, logger *zerolog.Logger) ([]models.Item, error) {
	itemsPath := os.Getenv("ITEMS_PATH")
	if itemsPath == "" {
		itemsPath = "configs/items.yaml"
	}
	itemsData, err := os.ReadFile(itemsPath)
	if errors.Is(err, os.ErrNotExist) {
		logger.Info().Str("items_path", itemsPath).Int("items", len(cfg.Items)).Msg("items file not found, using config items")
		return cfg.Items, nil
	}
	if err != nil {
		logger.Error().Err(err).Str("items_path", itemsPath).Msg("read items")
		return nil, err
	}

	var itemsConfig struct {
		Items []models.Item `yaml:"items"`
	}
	if err := yaml.Unmarshal(itemsData, &itemsConfig); err != nil {
		logger.Error().Err(err).Str("items_path", itemsPath).Msg("parse items")
		return nil, err
	}
	if err := config.ValidateItems(itemsConfig.Items); err != nil {
		return nil, fmt.Errorf("items file %s: %w", itemsPath, err)
	}
	return itemsConfig.Items, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, items []models.Item, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if len(items) > 0 {
		if err := db.SyncItems(ctx, items); err != nil {
			db.Close()
			return nil, fmt.Errorf("sync items: %w", err)
		}
	}
	if err := db.LoadItems(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("load items: %w", err)
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets unreachable, continuing without sheets")
		return nil
	}
	if err := sheetsService.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets cache warm-up failed")
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func newBookingService(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	redisClient *redis.Client,
	bus *events.EventBus,
	logger *zerolog.Logger,
) (*service.BookingService, error) {
	rules := booking.Rules{
		OpenTime:          cfg.Booking.OpenTime,
		CloseTime:         cfg.Booking.CloseTime,
		MinLabDuration:    cfg.Booking.MinLabDuration,
		MaxLabDayDuration: cfg.Booking.MaxLabDayDuration,
	}
	validator, err := booking.NewValidator(rules, cfg.Booking.Location(), nil)
	if err != nil {
		return nil, fmt.Errorf("booking rules: %w", err)
	}

	notifier := notify.NewGateway(
		notify.NewLogSender(logging.Component(logger, "user-outbox")),
		adminSender(cfg.Notifications, logger),
		cfg.Notifications.AdminEmails,
		db,
		logging.Component(logger, "notify"),
	)

	deps := service.BookingDeps{
		Bookings: db,
		Links:    db,
		Items:    db,
		History:  db,
		Notifier: notifier,
		Limiter:  newRateLimiter(ctx, cfg.Booking.RateLimit, redisClient, logger),
		Events:   bus,
	}
	return service.NewBookingService(deps, validator, rules, logging.Component(logger, "booking")), nil
}

// adminSender logs every admin message and also pushes it to Telegram when a bot is configured.
func adminSender(cfg config.NotificationsConfig, logger *zerolog.Logger) notify.Sender {
	outbox := notify.NewLogSender(logging.Component(logger, "admin-outbox"))
	if cfg.Telegram.BotToken == "" || len(cfg.Telegram.AdminChatIDs) == 0 {
		return outbox
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram bot init failed, admin messages stay in the log outbox")
		return outbox
	}
	bot.Debug = cfg.Telegram.Debug
	logger.Info().Str("bot", bot.Self.UserName).Int("chats", len(cfg.Telegram.AdminChatIDs)).Msg("telegram admin notifications enabled")

	return notify.MultiSender{notify.NewTelegramSender(bot, cfg.Telegram.AdminChatIDs), outbox}
}

func newRateLimiter(ctx context.Context, cfg config.RateLimitConfig, redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimiter {
	memory := repository.NewMemoryRateLimiter(cfg.Attempts, cfg.Window)
	go pruneLimiter(ctx, memory, cfg.Window)
	if redisClient == nil {
		return memory
	}
	redisLimiter := repository.NewRedisRateLimiter(redisClient, cfg.Attempts, cfg.Window)
	return repository.NewFailoverRateLimiter(redisLimiter, memory, logging.Component(logger, "rate-limit"))
}

func pruneLimiter(ctx context.Context, limiter *repository.MemoryRateLimiter, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune()
		}
	}
}

// watchDatabase reports the booking store's reachability through gRPC health.
func watchDatabase(ctx context.Context, db *database.DB, grpcServer *api.GRPCServer, logger *zerolog.Logger) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	serving := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := db.PingContext(ctx)
			if ok := err == nil; ok != serving {
				serving = ok
				grpcServer.SetServing(ok)
				logger.Warn().Err(err).Bool("serving", ok).Msg("database health changed")
			}
		}
	}
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

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	go func() {
		if !cfg.API.GRPC.Enabled {
			return
		}
		if err := grpcServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Str("grpc_addr", grpcServer.Addr()).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
