package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cache     CacheConfig
	Retry     RetryConfig
	Notify    NotifyConfig
	Email     EmailConfig
	AWS       AWSConfig
	Storage   StorageConfig
	Reconcile ReconcileConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type DBConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	TimeZone     string
	MaxIdleConns int
	MaxOpenConns int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// CacheConfig controls the read-through cache in front of the catalog reads.
type CacheConfig struct {
	Backend           string // redis | memory
	Prefix            string
	MemoryQuotaBytes  int
	DoctorsExpiration time.Duration
	SlotsExpiration   time.Duration
	RefreshTimeout    time.Duration
}

type RetryConfig struct {
	MaxAttempts int
	Timeout     time.Duration
	BaseDelay   time.Duration
}

type NotifyConfig struct {
	QueueEnabled     bool
	QueueConcurrency int
	Timeout          time.Duration
	AdminEmails      []string
}

type EmailConfig struct {
	Provider       string // sendgrid | ses | log
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

type AWSConfig struct {
	Region string
}

type StorageConfig struct {
	Bucket        string
	PublicBaseURL string
	MaxImageBytes int64
}

type ReconcileConfig struct {
	Schedule           string
	GracePeriod        time.Duration
	CacheWarmSchedule  string
	CacheSweepSchedule string
}

type RateLimitConfig struct {
	RequestsPerMinute int
	Burst             int
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("JWT_ACCESS_EXPIRY", "1h")

	viper.SetDefault("CACHE_BACKEND", "redis")
	viper.SetDefault("CACHE_PREFIX", "health_app_")
	viper.SetDefault("CACHE_MEMORY_QUOTA_BYTES", 5*1024*1024)
	viper.SetDefault("CACHE_DOCTORS_EXPIRATION", "1h")
	viper.SetDefault("CACHE_SLOTS_EXPIRATION", "1m")
	viper.SetDefault("CACHE_REFRESH_TIMEOUT", "10s")

	viper.SetDefault("RETRY_MAX_ATTEMPTS", 3)
	viper.SetDefault("RETRY_TIMEOUT", "10s")
	viper.SetDefault("RETRY_BASE_DELAY", "1s")

	viper.SetDefault("NOTIFY_QUEUE_ENABLED", false)
	viper.SetDefault("NOTIFY_QUEUE_CONCURRENCY", 5)
	viper.SetDefault("NOTIFY_TIMEOUT", "30s")

	viper.SetDefault("EMAIL_PROVIDER", "log")
	viper.SetDefault("EMAIL_FROM_NAME", "Clinic Booking")

	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("STORAGE_MAX_IMAGE_BYTES", 5*1024*1024)

	viper.SetDefault("RECONCILE_SCHEDULE", "@every 10m")
	viper.SetDefault("RECONCILE_GRACE_PERIOD", "15m")
	viper.SetDefault("CACHE_WARM_SCHEDULE", "@every 5m")
	viper.SetDefault("CACHE_SWEEP_SCHEDULE", "@every 30m")

	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	viper.SetDefault("RATE_LIMIT_BURST", 10)
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()
	setDefaults()

	// A missing .env is fine, the environment alone can configure the service.
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Port:     viper.GetString("APP_PORT"),
			Env:      viper.GetString("APP_ENV"),
			LogLevel: viper.GetString("LOG_LEVEL"),
		},
		DB: DBConfig{
			Host:         viper.GetString("DB_HOST"),
			Port:         viper.GetString("DB_PORT"),
			User:         viper.GetString("DB_USER"),
			Password:     viper.GetString("DB_PASSWORD"),
			Name:         viper.GetString("DB_NAME"),
			SSLMode:      viper.GetString("DB_SSLMODE"),
			TimeZone:     viper.GetString("DB_TIMEZONE"),
			MaxIdleConns: viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpenConns: viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: viper.GetDuration("JWT_ACCESS_EXPIRY"),
		},
		Cache: CacheConfig{
			Backend:           viper.GetString("CACHE_BACKEND"),
			Prefix:            viper.GetString("CACHE_PREFIX"),
			MemoryQuotaBytes:  viper.GetInt("CACHE_MEMORY_QUOTA_BYTES"),
			DoctorsExpiration: viper.GetDuration("CACHE_DOCTORS_EXPIRATION"),
			SlotsExpiration:   viper.GetDuration("CACHE_SLOTS_EXPIRATION"),
			RefreshTimeout:    viper.GetDuration("CACHE_REFRESH_TIMEOUT"),
		},
		Retry: RetryConfig{
			MaxAttempts: viper.GetInt("RETRY_MAX_ATTEMPTS"),
			Timeout:     viper.GetDuration("RETRY_TIMEOUT"),
			BaseDelay:   viper.GetDuration("RETRY_BASE_DELAY"),
		},
		Notify: NotifyConfig{
			QueueEnabled:     viper.GetBool("NOTIFY_QUEUE_ENABLED"),
			QueueConcurrency: viper.GetInt("NOTIFY_QUEUE_CONCURRENCY"),
			Timeout:          viper.GetDuration("NOTIFY_TIMEOUT"),
			AdminEmails:      SplitList(viper.GetString("ADMIN_EMAILS")),
		},
		Email: EmailConfig{
			Provider:       strings.ToLower(viper.GetString("EMAIL_PROVIDER")),
			SendGridAPIKey: viper.GetString("SENDGRID_API_KEY"),
			FromEmail:      viper.GetString("EMAIL_FROM_ADDRESS"),
			FromName:       viper.GetString("EMAIL_FROM_NAME"),
		},
		AWS: AWSConfig{
			Region: viper.GetString("AWS_REGION"),
		},
		Storage: StorageConfig{
			Bucket:        viper.GetString("STORAGE_BUCKET"),
			PublicBaseURL: strings.TrimRight(viper.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
			MaxImageBytes: viper.GetInt64("STORAGE_MAX_IMAGE_BYTES"),
		},
		Reconcile: ReconcileConfig{
			Schedule:           viper.GetString("RECONCILE_SCHEDULE"),
			GracePeriod:        viper.GetDuration("RECONCILE_GRACE_PERIOD"),
			CacheWarmSchedule:  viper.GetString("CACHE_WARM_SCHEDULE"),
			CacheSweepSchedule: viper.GetString("CACHE_SWEEP_SCHEDULE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: viper.GetInt("RATE_LIMIT_PER_MINUTE"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
		},
	}

	return config, nil
}

// SplitList parses a comma-separated value, dropping blanks.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
