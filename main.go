package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/buildcocoffeeapp-wq/KafePano11/internal/config"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/contentstore"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/database"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/display"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/logging"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/ratelimit"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/repository"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/server"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/services"
	"github.com/buildcocoffeeapp-wq/KafePano11/internal/storage"
	"github.com/goodsign/monday"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("running migrations", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer redisClient.Close()
	}

	var notifier contentstore.Notifier = contentstore.NewLocalNotifier()
	if redisClient != nil {
		notifier = contentstore.NewRedisNotifier(redisClient, cfg.RedisChannel)
	}
	store := contentstore.NewSQLiteStore(db, notifier)
	if err := store.Start(ctx); err != nil {
		slog.Error("starting content store", "error", err)
		os.Exit(1)
	}

	location, err := time.LoadLocation(cfg.DisplayTimezone)
	if err != nil {
		slog.Warn("unknown display timezone, using local time", "timezone", cfg.DisplayTimezone, "error", err)
		location = time.Local
	}

	settingsService := services.NewSettingsService(repository.NewSettingsRepository(store))
	if err := settingsService.EnsureDefaults(ctx); err != nil {
		slog.Error("creating default settings", "error", err)
	}
	eventRepo := repository.NewEventRepository(store, location, nil)
	photoRepo := repository.NewPhotoRepository(store, nil)
	announcementRepo := repository.NewAnnouncementRepository(store, nil)
	menuItemRepo := repository.NewMenuItemRepository(store, nil)

	limiter, err := newLimiter(redisClient, cfg.LoginRateLimitPerMinute)
	if err != nil {
		slog.Error("creating login limiter", "error", err)
		os.Exit(1)
	}

	userRepo := repository.NewUserRepository(db)
	authService, err := services.NewAuthService(ctx, cfg, userRepo, limiter)
	if err != nil {
		slog.Error("creating auth service", "error", err)
		os.Exit(1)
	}
	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		slog.Error("creating admin account", "error", err)
		os.Exit(1)
	}

	uploader, err := newUploader(ctx, cfg)
	if err != nil {
		slog.Error("creating asset uploader", "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg, server.Dependencies{
		AuthService:      authService,
		SettingsService:  settingsService,
		AssetService:     services.NewAssetService(uploader, settingsService, photoRepo),
		WeatherService:   services.NewWeatherService(cfg.WeatherBaseURL),
		EventRepo:        eventRepo,
		PhotoRepo:        photoRepo,
		AnnouncementRepo: announcementRepo,
		MenuItemRepo:     menuItemRepo,
		DisplayOptions: display.Options{
			Location: location,
			Locale:   monday.Locale(cfg.DisplayLocale),
		},
	})
	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newLimiter(client *redis.Client, perMinute int) (services.Limiter, error) {
	if client != nil {
		return ratelimit.NewRedisFixedWindow(client, "kafepano:login", perMinute, time.Minute, nil)
	}
	return ratelimit.NewMemoryFixedWindow(perMinute, time.Minute, nil)
}

func newUploader(ctx context.Context, cfg config.Config) (services.Uploader, error) {
	if cfg.AssetBackend == config.AssetBackendMinio {
		return storage.NewMinioUploader(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL)
	}
	return storage.NewCloudinaryUploader(cfg.CloudinaryCloudName, cfg.CloudinaryUploadPreset), nil
}
