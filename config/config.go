package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAccessSecret  = "default_access_secret_change_in_production"
	defaultRefreshSecret = "default_refresh_secret_change_in_production"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name        string        `mapstructure:"name"`
	Environment string        `mapstructure:"environment"`
	Debug       bool          `mapstructure:"debug"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Port        string        `mapstructure:"port"`
	LogsPath    string        `mapstructure:"logs_path"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// JWTConfig holds two independent signing secrets so that a leaked access
// secret cannot be used to mint refresh tokens and vice versa.
type JWTConfig struct {
	AccessSecret  string        `mapstructure:"access_secret"`
	RefreshSecret string        `mapstructure:"refresh_secret"`
	AccessTTL     time.Duration `mapstructure:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl"`
	Issuer        string        `mapstructure:"issuer"`
}

// PasswordConfig controls the Argon2id cost. MemoryKiB is in KiB.
type PasswordConfig struct {
	MemoryKiB   uint32 `mapstructure:"memory_kib"`
	Iterations  uint32 `mapstructure:"iterations"`
	Parallelism uint8  `mapstructure:"parallelism"`
	SaltLength  uint32 `mapstructure:"salt_length"`
	KeyLength   uint32 `mapstructure:"key_length"`
}

type AuthConfig struct {
	CollapseSignInErrors   bool          `mapstructure:"collapse_signin_errors"`
	SessionCleanupInterval time.Duration `mapstructure:"session_cleanup_interval"`
}

type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolTimeout  time.Duration `mapstructure:"pool_timeout"`
}

type RateLimitConfig struct {
	Request      int `mapstructure:"request"`
	Duration     int `mapstructure:"duration"`
	AuthRequest  int `mapstructure:"auth_request"`
	AuthDuration int `mapstructure:"auth_duration"`
}

func LoadConfig() (*Config, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "auth-service"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
			Timeout:     getEnvAsDuration("APP_TIMEOUT", 30*time.Second),
			LogsPath:    getEnv("LOGS_PATH", "./logs"),
			CORSOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", nil),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "auth_db"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", false),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnvAsInt("REDIS_PORT", 6379),
			Password:     getEnv("REDIS_PASSWORD", ""),
			Database:     getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getEnvAsDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		},
		JWT: JWTConfig{
			AccessSecret:  getEnv("JWT_ACCESS_SECRET", defaultAccessSecret),
			RefreshSecret: getEnv("JWT_REFRESH_SECRET", defaultRefreshSecret),
			AccessTTL:     getEnvAsDuration("JWT_ACCESS_TTL", 15*time.Minute),
			RefreshTTL:    getEnvAsDuration("JWT_REFRESH_TTL", 7*24*time.Hour),
			Issuer:        getEnv("JWT_ISSUER", "auth-service"),
		},
		Password: PasswordConfig{
			MemoryKiB:   uint32(getEnvAsInt("PASSWORD_ARGON2_MEMORY_KIB", 64*1024)),
			Iterations:  uint32(getEnvAsInt("PASSWORD_ARGON2_ITERATIONS", 3)),
			Parallelism: uint8(getEnvAsInt("PASSWORD_ARGON2_PARALLELISM", 2)),
			SaltLength:  uint32(getEnvAsInt("PASSWORD_ARGON2_SALT_LENGTH", 16)),
			KeyLength:   uint32(getEnvAsInt("PASSWORD_ARGON2_KEY_LENGTH", 32)),
		},
		Auth: AuthConfig{
			CollapseSignInErrors:   getEnvAsBool("AUTH_COLLAPSE_SIGNIN_ERRORS", true),
			SessionCleanupInterval: getEnvAsDuration("AUTH_SESSION_CLEANUP_INTERVAL", time.Hour),
		},
		RateLimit: RateLimitConfig{
			Request:      getEnvAsInt("RATE_LIMIT_MAX_REQUEST", 100),
			Duration:     getEnvAsInt("RATE_LIMIT_DURATION", 60),
			AuthRequest:  getEnvAsInt("RATE_LIMIT_AUTH_MAX_REQUEST", 10),
			AuthDuration: getEnvAsInt("RATE_LIMIT_AUTH_DURATION", 60),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations that would weaken token separation.
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.AccessSecret == "" || c.JWT.RefreshSecret == "" {
		errs = append(errs, errors.New("jwt access and refresh secrets must be set"))
	}
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("jwt access and refresh secrets must differ"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("jwt ttls must be positive"))
	}
	if c.JWT.AccessTTL >= c.JWT.RefreshTTL {
		errs = append(errs, errors.New("jwt access ttl must be shorter than refresh ttl"))
	}
	if c.App.Environment == "production" &&
		(c.JWT.AccessSecret == defaultAccessSecret || c.JWT.RefreshSecret == defaultRefreshSecret) {
		errs = append(errs, errors.New("default jwt secrets are not allowed in production"))
	}
	if c.Password.MemoryKiB == 0 || c.Password.Iterations == 0 || c.Password.Parallelism == 0 {
		errs = append(errs, errors.New("argon2 memory, iterations and parallelism must be positive"))
	}
	if c.Password.SaltLength < 8 || c.Password.KeyLength < 16 {
		errs = append(errs, errors.New("argon2 salt must be at least 8 bytes and key at least 16 bytes"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) DatabaseConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsSlice splits a comma separated value and drops empty items.
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
