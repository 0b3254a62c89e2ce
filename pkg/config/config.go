package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Timezone  string

	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	CORS         CORSConfig
	Log          LogConfig
	Ledger       LedgerConfig
	Cache        CacheConfig
	Notification NotificationConfig
	Archive      ArchiveConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig holds the operator token settings for the admin surface.
type AuthConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LedgerConfig tunes the bounded-window scans over the attendance tables.
type LedgerConfig struct {
	DuplicateScanRows int
	ReportScanRows    int
	TodayScanRows     int
}

// CacheConfig sets the derived-cache TTLs.
type CacheConfig struct {
	Enabled     bool
	RosterTTL   time.Duration
	ScheduleTTL time.Duration
	ReportTTL   time.Duration
}

// NotificationConfig configures the guardian notification queue and sender.
type NotificationConfig struct {
	Enabled          bool
	QueueCap         int
	FlushDelay       time.Duration
	GatewayURL       string
	APIKey           string
	Sender           string
	TemplateCheckIn  string
	TemplateCheckOut string
	TemplateSick     string
	TemplateLeave    string
	TemplateAbsent   string
}

// ArchiveConfig controls the monthly roll-over scheduler.
type ArchiveConfig struct {
	Enabled bool
	Hour    int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		Secret:     v.GetString("AUTH_SECRET"),
		Issuer:     v.GetString("AUTH_ISSUER"),
		Expiration: parseDuration(v.GetString("AUTH_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Ledger = LedgerConfig{
		DuplicateScanRows: v.GetInt("LEDGER_DUPLICATE_SCAN_ROWS"),
		ReportScanRows:    v.GetInt("LEDGER_REPORT_SCAN_ROWS"),
		TodayScanRows:     v.GetInt("LEDGER_TODAY_SCAN_ROWS"),
	}

	cfg.Cache = CacheConfig{
		Enabled:     v.GetBool("CACHE_ENABLED"),
		RosterTTL:   parseDuration(v.GetString("CACHE_ROSTER_TTL"), 10*time.Minute),
		ScheduleTTL: parseDuration(v.GetString("CACHE_SCHEDULE_TTL"), 5*time.Minute),
		ReportTTL:   parseDuration(v.GetString("CACHE_REPORT_TTL"), 2*time.Minute),
	}

	cfg.Notification = NotificationConfig{
		Enabled:          v.GetBool("NOTIFY_ENABLED"),
		QueueCap:         v.GetInt("NOTIFY_QUEUE_CAP"),
		FlushDelay:       parseDuration(v.GetString("NOTIFY_FLUSH_DELAY"), 10*time.Second),
		GatewayURL:       v.GetString("NOTIFY_GATEWAY_URL"),
		APIKey:           v.GetString("NOTIFY_API_KEY"),
		Sender:           v.GetString("NOTIFY_SENDER"),
		TemplateCheckIn:  v.GetString("NOTIFY_TEMPLATE_CHECKIN"),
		TemplateCheckOut: v.GetString("NOTIFY_TEMPLATE_CHECKOUT"),
		TemplateSick:     v.GetString("NOTIFY_TEMPLATE_SICK"),
		TemplateLeave:    v.GetString("NOTIFY_TEMPLATE_LEAVE"),
		TemplateAbsent:   v.GetString("NOTIFY_TEMPLATE_ABSENT"),
	}

	cfg.Archive = ArchiveConfig{
		Enabled: v.GetBool("ARCHIVE_ENABLED"),
		Hour:    v.GetInt("ARCHIVE_HOUR"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "Asia/Jakarta")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance_ledger")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("AUTH_SECRET", "dev_secret")
	v.SetDefault("AUTH_ISSUER", "ledger-api")
	v.SetDefault("AUTH_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LEDGER_DUPLICATE_SCAN_ROWS", 300)
	v.SetDefault("LEDGER_REPORT_SCAN_ROWS", 5000)
	v.SetDefault("LEDGER_TODAY_SCAN_ROWS", 500)

	v.SetDefault("CACHE_ENABLED", true)
	v.SetDefault("CACHE_ROSTER_TTL", "10m")
	v.SetDefault("CACHE_SCHEDULE_TTL", "5m")
	v.SetDefault("CACHE_REPORT_TTL", "2m")

	v.SetDefault("NOTIFY_ENABLED", false)
	v.SetDefault("NOTIFY_QUEUE_CAP", 50)
	v.SetDefault("NOTIFY_FLUSH_DELAY", "10s")
	v.SetDefault("NOTIFY_GATEWAY_URL", "")
	v.SetDefault("NOTIFY_API_KEY", "")
	v.SetDefault("NOTIFY_SENDER", "")
	v.SetDefault("NOTIFY_TEMPLATE_CHECKIN", "Ananda {nama} telah hadir di sekolah pada {tanggal} pukul {waktu}.")
	v.SetDefault("NOTIFY_TEMPLATE_CHECKOUT", "Ananda {nama} telah pulang dari sekolah pada {tanggal} pukul {waktu}.")
	v.SetDefault("NOTIFY_TEMPLATE_SICK", "Ananda {nama} tercatat Sakit pada {tanggal}.")
	v.SetDefault("NOTIFY_TEMPLATE_LEAVE", "Ananda {nama} tercatat Ijin pada {tanggal}.")
	v.SetDefault("NOTIFY_TEMPLATE_ABSENT", "Ananda {nama} tercatat Alpha pada {tanggal}.")

	v.SetDefault("ARCHIVE_ENABLED", true)
	v.SetDefault("ARCHIVE_HOUR", 2)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
