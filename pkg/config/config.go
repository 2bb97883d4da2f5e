package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Submission strategies for the lesson registration form.
const (
	SubmitStrategyUI     = "ui"
	SubmitStrategyDirect = "direct"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Auth       AuthConfig
	CORS       CORSConfig
	Log        LogConfig
	Portal     PortalConfig
	LessonPlan LessonPlanConfig
	Runs       RunsConfig
	RateLimit  RateLimitConfig
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

// DSN returns the lib/pq keyword connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// URL returns the connection string in URL form, as expected by migrate.
func (c DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthConfig holds the shared keys used by the chat-bot client.
type AuthConfig struct {
	APIKey      string
	AdminAPIKey string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PortalConfig tunes browser automation against the SED portal.
type PortalConfig struct {
	BaseURL            string
	AttendanceURL      string
	BrowserBin         string
	Headless           bool
	NavigationTimeout  time.Duration
	ElementTimeout     time.Duration
	SaveTimeout        time.Duration
	SettleDelay        time.Duration
	RetryDelay         time.Duration
	MaxAttempts        int
	SubmitStrategy     string
	SkipUnknownSubject bool
	// LockTTL bounds a lock left behind by a crashed process; holders renew it.
	LockTTL            time.Duration
}

// LessonPlanConfig configures the lesson plan analysis service.
type LessonPlanConfig struct {
	GeminiAPIKey   string
	Model          string
	ThinkingBudget int
	FetchTimeout   time.Duration
	MaxBytes       int64
}

// RunsConfig configures asynchronous registration runs and their exports.
type RunsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	CredentialKey     string
}

// RateLimitConfig bounds portal-heavy requests per user.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = strings.TrimRight(v.GetString("API_PREFIX"), "/")

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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 1800*time.Second),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Auth = AuthConfig{
		APIKey:      v.GetString("API_KEY"),
		AdminAPIKey: v.GetString("ADMIN_API_KEY"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxAttempts := v.GetInt("REGISTRATION_MAX_ATTEMPTS")
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	strategy := strings.ToLower(v.GetString("REGISTRATION_SUBMIT_STRATEGY"))
	if strategy != SubmitStrategyDirect {
		strategy = SubmitStrategyUI
	}
	cfg.Portal = PortalConfig{
		BaseURL:            strings.TrimRight(v.GetString("SED_BASE_URL"), "/"),
		AttendanceURL:      v.GetString("SED_ATTENDANCE_URL"),
		BrowserBin:         v.GetString("BROWSER_BIN"),
		Headless:           v.GetBool("BROWSER_HEADLESS"),
		NavigationTimeout:  parseDuration(v.GetString("PORTAL_NAVIGATION_TIMEOUT"), 60*time.Second),
		ElementTimeout:     parseDuration(v.GetString("PORTAL_ELEMENT_TIMEOUT"), 30*time.Second),
		SaveTimeout:        parseDuration(v.GetString("PORTAL_SAVE_TIMEOUT"), 10*time.Second),
		SettleDelay:        parseDuration(v.GetString("PORTAL_SETTLE_DELAY"), 1500*time.Millisecond),
		RetryDelay:         parseDuration(v.GetString("PORTAL_RETRY_DELAY"), 2*time.Second),
		MaxAttempts:        maxAttempts,
		SubmitStrategy:     strategy,
		SkipUnknownSubject: v.GetBool("REGISTRATION_SKIP_UNKNOWN_SUBJECTS"),
		LockTTL:            parseDuration(v.GetString("PORTAL_LOCK_TTL"), 2*time.Minute),
	}

	maxBytes := v.GetInt64("LESSON_PLAN_MAX_BYTES")
	if maxBytes <= 0 {
		maxBytes = 20 * 1024 * 1024
	}
	cfg.LessonPlan = LessonPlanConfig{
		GeminiAPIKey:   v.GetString("GEMINI_API_KEY"),
		Model:          v.GetString("GEMINI_MODEL"),
		ThinkingBudget: v.GetInt("GEMINI_THINKING_BUDGET"),
		FetchTimeout:   parseDuration(v.GetString("LESSON_PLAN_FETCH_TIMEOUT"), 60*time.Second),
		MaxBytes:       maxBytes,
	}

	cfg.Runs = RunsConfig{
		Enabled:           v.GetBool("ENABLE_ASYNC_RUNS"),
		StorageDir:        v.GetString("RUNS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("RUNS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("RUNS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("RUNS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("RUNS_WORKER_CONCURRENCY"),
		CredentialKey:     v.GetString("RUNS_CREDENTIAL_KEY"),
	}

	cfg.RateLimit = RateLimitConfig{
		Requests: v.GetInt("RATE_LIMIT_REQUESTS"),
		Window:   parseDuration(v.GetString("RATE_LIMIT_WINDOW"), time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 3000)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sed_diario")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "1800s")
	v.SetDefault("JWT_ISSUER", "sed-diario-api")

	v.SetDefault("API_KEY", "")
	v.SetDefault("ADMIN_API_KEY", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SED_BASE_URL", "https://sed.educacao.sp.gov.br")
	v.SetDefault("SED_ATTENDANCE_URL", "https://frequencia.sed.educacao.sp.gov.br/Frequencia/Index")
	v.SetDefault("BROWSER_BIN", "")
	v.SetDefault("BROWSER_HEADLESS", true)
	v.SetDefault("PORTAL_NAVIGATION_TIMEOUT", "60s")
	v.SetDefault("PORTAL_ELEMENT_TIMEOUT", "30s")
	v.SetDefault("PORTAL_SAVE_TIMEOUT", "10s")
	v.SetDefault("PORTAL_SETTLE_DELAY", "1500ms")
	v.SetDefault("PORTAL_RETRY_DELAY", "2s")
	v.SetDefault("REGISTRATION_MAX_ATTEMPTS", 3)
	v.SetDefault("REGISTRATION_SUBMIT_STRATEGY", SubmitStrategyUI)
	v.SetDefault("REGISTRATION_SKIP_UNKNOWN_SUBJECTS", false)
	v.SetDefault("PORTAL_LOCK_TTL", "2m")

	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_THINKING_BUDGET", 8000)
	v.SetDefault("LESSON_PLAN_FETCH_TIMEOUT", "60s")
	v.SetDefault("LESSON_PLAN_MAX_BYTES", 20*1024*1024)

	v.SetDefault("ENABLE_ASYNC_RUNS", true)
	v.SetDefault("RUNS_STORAGE_DIR", "./exports")
	v.SetDefault("RUNS_SIGNED_URL_SECRET", "dev_runs_secret")
	v.SetDefault("RUNS_SIGNED_URL_TTL", "24h")
	v.SetDefault("RUNS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("RUNS_WORKER_CONCURRENCY", 2)
	v.SetDefault("RUNS_CREDENTIAL_KEY", "dev_credential_key")

	v.SetDefault("RATE_LIMIT_REQUESTS", 20)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
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
