package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	AssetBackendCloudinary = "cloudinary"
	AssetBackendMinio      = "minio"
)

type Config struct {
	DatabasePath     string `yaml:"databasePath"`
	Port             string `yaml:"port"`
	LogLevel         string `yaml:"logLevel"`
	SessionSecret    string `yaml:"sessionSecret"`
	AdminEmail       string `yaml:"adminEmail"`
	AdminPassword    string `yaml:"adminPassword"`
	AdminName        string `yaml:"adminName"`
	OIDCIssuer       string `yaml:"oidcIssuer"`
	OIDCClientID     string `yaml:"oidcClientID"`
	OIDCClientSecret string `yaml:"oidcClientSecret"`
	OIDCRedirectURL  string `yaml:"oidcRedirectURL"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisChannel  string `yaml:"redisChannel"`

	AssetBackend           string `yaml:"assetBackend"`
	CloudinaryCloudName    string `yaml:"cloudinaryCloudName"`
	CloudinaryUploadPreset string `yaml:"cloudinaryUploadPreset"`
	MinioEndpoint          string `yaml:"minioEndpoint"`
	MinioAccessKey         string `yaml:"minioAccessKey"`
	MinioSecretKey         string `yaml:"minioSecretKey"`
	MinioBucket            string `yaml:"minioBucket"`
	MinioUseSSL            bool   `yaml:"minioUseSSL"`
	MinioPublicURL         string `yaml:"minioPublicURL"`

	WeatherBaseURL  string `yaml:"weatherBaseURL"`
	DisplayTimezone string `yaml:"displayTimezone"`
	DisplayLocale   string `yaml:"displayLocale"`
	ICalToken       string `yaml:"icalToken"`

	LoginRateLimitPerMinute int `yaml:"loginRateLimitPerMinute"`
}

// Load reads the optional YAML file named by CONFIG_PATH and lets the
// environment override every key.
func Load() (Config, error) {
	config := Config{}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	config.DatabasePath = envOrDefault("DATABASE_PATH", orDefault(config.DatabasePath, "./data/kafepano.db"))
	config.Port = envOrDefault("PORT", orDefault(config.Port, "8080"))
	config.LogLevel = envOrDefault("LOG_LEVEL", orDefault(config.LogLevel, "info"))
	config.SessionSecret = envOrDefault("SESSION_SECRET", config.SessionSecret)
	config.AdminEmail = envOrDefault("ADMIN_EMAIL", config.AdminEmail)
	config.AdminPassword = envOrDefault("ADMIN_PASSWORD", config.AdminPassword)
	config.AdminName = envOrDefault("ADMIN_NAME", orDefault(config.AdminName, "Yönetici"))
	config.OIDCIssuer = envOrDefault("OIDC_ISSUER", config.OIDCIssuer)
	config.OIDCClientID = envOrDefault("OIDC_CLIENT_ID", config.OIDCClientID)
	config.OIDCClientSecret = envOrDefault("OIDC_CLIENT_SECRET", config.OIDCClientSecret)
	config.OIDCRedirectURL = envOrDefault("OIDC_REDIRECT_URL", config.OIDCRedirectURL)

	config.RedisAddr = envOrDefault("REDIS_ADDR", config.RedisAddr)
	config.RedisPassword = envOrDefault("REDIS_PASSWORD", config.RedisPassword)
	config.RedisChannel = envOrDefault("REDIS_CHANNEL", orDefault(config.RedisChannel, "kafepano:changes"))

	config.AssetBackend = envOrDefault("ASSET_BACKEND", orDefault(config.AssetBackend, AssetBackendCloudinary))
	config.CloudinaryCloudName = envOrDefault("CLOUDINARY_CLOUD_NAME", config.CloudinaryCloudName)
	config.CloudinaryUploadPreset = envOrDefault("CLOUDINARY_UPLOAD_PRESET", config.CloudinaryUploadPreset)
	config.MinioEndpoint = envOrDefault("MINIO_ENDPOINT", config.MinioEndpoint)
	config.MinioAccessKey = envOrDefault("MINIO_ACCESS_KEY", config.MinioAccessKey)
	config.MinioSecretKey = envOrDefault("MINIO_SECRET_KEY", config.MinioSecretKey)
	config.MinioBucket = envOrDefault("MINIO_BUCKET", config.MinioBucket)
	if value := os.Getenv("MINIO_USE_SSL"); value != "" {
		config.MinioUseSSL = value == "true"
	}
	config.MinioPublicURL = envOrDefault("MINIO_PUBLIC_URL", config.MinioPublicURL)

	config.WeatherBaseURL = envOrDefault("WEATHER_BASE_URL", orDefault(config.WeatherBaseURL, "https://api.open-meteo.com"))
	config.DisplayTimezone = envOrDefault("DISPLAY_TIMEZONE", orDefault(config.DisplayTimezone, "Europe/Istanbul"))
	config.DisplayLocale = envOrDefault("DISPLAY_LOCALE", orDefault(config.DisplayLocale, "tr_TR"))
	config.ICalToken = envOrDefault("ICAL_TOKEN", config.ICalToken)

	if value := os.Getenv("LOGIN_RATE_LIMIT_PER_MINUTE"); value != "" {
		if limit, err := strconv.Atoi(value); err == nil {
			config.LoginRateLimitPerMinute = limit
		}
	}
	if config.LoginRateLimitPerMinute <= 0 {
		config.LoginRateLimitPerMinute = 10
	}

	if err := validate(config); err != nil {
		return Config{}, err
	}
	return config, nil
}

func validate(config Config) error {
	if config.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	switch config.AssetBackend {
	case AssetBackendCloudinary:
	case AssetBackendMinio:
		if config.MinioEndpoint == "" || config.MinioAccessKey == "" || config.MinioSecretKey == "" ||
			config.MinioBucket == "" || config.MinioPublicURL == "" {
			return errors.New("minio asset backend requires MINIO_ENDPOINT, MINIO_ACCESS_KEY, MINIO_SECRET_KEY, MINIO_BUCKET and MINIO_PUBLIC_URL")
		}
	default:
		return fmt.Errorf("unknown ASSET_BACKEND %q", config.AssetBackend)
	}
	return nil
}

func envOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func orDefault(value, defaultValue string) string {
	if value != "" {
		return value
	}
	return defaultValue
}
