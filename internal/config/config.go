package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	LogLevel               string
	DatabaseURL            string
	DatabaseMaxOpenConns   int
	DatabaseMaxIdleConns   int
	DatabaseConnLifetime   time.Duration
	RedisURL               string
	NATSURL                string
	RealtimeChannel        string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int
	LeaderboardCacheTTL    time.Duration
	ReportThreshold        int
	NotificationRetention  time.Duration
	SchedulerEnabled       bool
	SchedulerTimezone      string
	MonthlyResetCron       string
	RetentionCron          string
	RateLimitPerMinute     int
	CORSAllowOrigins       []string
	AccessLog              bool
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// CloudinaryEnabled reports whether note files can be uploaded to Cloudinary.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("UNISHARE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "UniShare API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")
	v.SetDefault("realtime.channel", "unishare")
	v.SetDefault("cloudinary.folder", "unishare/notes")
	v.SetDefault("upload.max_size_mb", 20)
	v.SetDefault("leaderboard.cache_ttl", "1m")
	v.SetDefault("reports.threshold", 15)
	v.SetDefault("notifications.retention", "720h")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.monthly_reset", "0 0 1 * *")
	v.SetDefault("scheduler.retention", "0 3 * * *")
	v.SetDefault("rate_limit.per_minute", 60)
	v.SetDefault("log.access", false)

	leaderboardTTL, err := time.ParseDuration(v.GetString("leaderboard.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid leaderboard cache ttl: %w", err)
	}

	retention, err := time.ParseDuration(v.GetString("notifications.retention"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid notification retention: %w", err)
	}

	connLifetime, err := time.ParseDuration(v.GetString("database.conn_max_lifetime"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid database connection lifetime: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		DatabaseURL:            v.GetString("database.url"),
		DatabaseMaxOpenConns:   v.GetInt("database.max_open_conns"),
		DatabaseMaxIdleConns:   v.GetInt("database.max_idle_conns"),
		DatabaseConnLifetime:   connLifetime,
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		RealtimeChannel:        v.GetString("realtime.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		LeaderboardCacheTTL:    leaderboardTTL,
		ReportThreshold:        v.GetInt("reports.threshold"),
		NotificationRetention:  retention,
		SchedulerEnabled:       v.GetBool("scheduler.enabled"),
		SchedulerTimezone:      v.GetString("scheduler.timezone"),
		MonthlyResetCron:       v.GetString("scheduler.monthly_reset"),
		RetentionCron:          v.GetString("scheduler.retention"),
		RateLimitPerMinute:     v.GetInt("rate_limit.per_minute"),
		CORSAllowOrigins:       splitList(v.GetString("cors.allow_origins")),
		AccessLog:              v.GetBool("log.access"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}
	if cfg.ReportThreshold <= 0 {
		cfg.ReportThreshold = 15
	}
	if cfg.NotificationRetention <= 0 {
		return Config{}, fmt.Errorf("notification retention must be positive")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
