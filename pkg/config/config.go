package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"

	AuthStrategyRemote = "remote"
	AuthStrategyLocal  = "local"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the PostgreSQL connection string
func (c *DBConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MongoConfig holds document store configuration
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// AppConfig describes the running application
type AppConfig struct {
	Name    string
	Version string
}

// AuthConfig selects and configures the token validation strategy
type AuthConfig struct {
	Strategy       string
	OAuthServerURL string
	OAuthTimeout   time.Duration
	BreakerEnabled bool
}

// JWTConfig holds configuration for self-issued tokens
type JWTConfig struct {
	Secret         string
	ExpiresIn      time.Duration
	RefreshExpires time.Duration
}

// RedisConfig holds the rate limiter backend configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig bounds login attempts per client
type RateLimitConfig struct {
	LoginLimit  int
	LoginWindow time.Duration
}

// CronConfig holds maintenance scheduler configuration
type CronConfig struct {
	Expression string
	PurgeAfter time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// Config holds all configuration
type Config struct {
	ServiceName string
	StoreDriver string
	App         AppConfig
	DB          DBConfig
	Mongo       MongoConfig
	Server      ServerConfig
	Auth        AuthConfig
	JWT         JWTConfig
	Redis       RedisConfig
	RateLimit   RateLimitConfig
	Cron        CronConfig
	Log         LogConfig
	Metrics     MetricsConfig
}

// Load reads configuration from the environment, loading .env first when present
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	serviceName := getEnv("SERVICE_NAME", "maintenance-service")

	config := &Config{
		ServiceName: serviceName,
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		App: AppConfig{
			Name:    getEnv("APP_NAME", "Backend App Maintenance"),
			Version: getEnv("APP_VERSION", "1.0.0"),
		},
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "maintenance"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Mongo: MongoConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "maintenance"),
			Timeout:  getEnvAsDuration("MONGODB_TIMEOUT", 10*time.Second),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("APP_ENV", getEnv("NODE_ENV", "development")),
		},
		Auth: AuthConfig{
			Strategy:       strings.ToLower(getEnv("AUTH_STRATEGY", AuthStrategyRemote)),
			OAuthServerURL: strings.TrimRight(getEnv("OAUTH2_SERVER_URL", "https://oauth2-application.vercel.app"), "/"),
			OAuthTimeout:   getEnvAsDuration("OAUTH2_TIMEOUT", 5*time.Second),
			BreakerEnabled: getEnvAsBool("OAUTH2_BREAKER_ENABLED", true),
		},
		JWT: JWTConfig{
			Secret:         getEnv("JWT_SECRET", ""),
			ExpiresIn:      getEnvAsExpiry("JWT_EXPIRES_IN", 24*time.Hour),
			RefreshExpires: getEnvAsExpiry("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RateLimit: RateLimitConfig{
			LoginLimit:  getEnvAsInt("LOGIN_RATE_LIMIT", 10),
			LoginWindow: getEnvAsDuration("LOGIN_RATE_WINDOW", time.Minute),
		},
		Cron: CronConfig{
			Expression: getEnv("CRON_EXPRESSION", "*/30 * * * * *"),
			PurgeAfter: getEnvAsDuration("PURGE_DELETED_AFTER", 0),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", serviceName),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks combinations that cannot be caught by defaults
func (c *Config) Validate() error {
	var problems []error

	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMongo:
	default:
		problems = append(problems, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.Auth.Strategy {
	case AuthStrategyRemote:
		if c.Auth.OAuthServerURL == "" {
			problems = append(problems, errors.New("OAUTH2_SERVER_URL is required for the remote auth strategy"))
		}
	case AuthStrategyLocal:
		if c.JWT.Secret == "" {
			problems = append(problems, errors.New("JWT_SECRET is required for the local auth strategy"))
		}
	default:
		problems = append(problems, fmt.Errorf("unsupported AUTH_STRATEGY %q", c.Auth.Strategy))
	}

	if c.JWT.ExpiresIn <= 0 {
		problems = append(problems, errors.New("JWT_EXPIRES_IN must be positive"))
	}

	return errors.Join(problems...)
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// LogConfig returns the configuration as zap fields, secrets excluded
func (c *Config) LogConfig() []zap.Field {
	fields := []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("app_version", c.App.Version),
		zap.String("environment", c.Server.Env),
		zap.String("server_port", c.Server.Port),
		zap.String("store_driver", c.StoreDriver),
		zap.String("auth_strategy", c.Auth.Strategy),
		zap.String("cron_expression", c.Cron.Expression),
		zap.Bool("redis_rate_limit", c.Redis.Addr != ""),
	}

	if c.StoreDriver == StoreDriverMongo {
		fields = append(fields, zap.String("mongo_database", c.Mongo.Database))
	} else {
		fields = append(fields,
			zap.String("db_host", c.DB.Host),
			zap.String("db_port", c.DB.Port),
			zap.String("db_name", c.DB.DBName),
		)
	}

	if c.Auth.Strategy == AuthStrategyRemote {
		fields = append(fields, zap.String("oauth2_server_url", c.Auth.OAuthServerURL))
	}

	return fields
}

// ParseExpiry converts "7d", "24h", "30m" or a plain number of seconds into a duration
func ParseExpiry(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("empty expiry")
	}

	unit := time.Second
	number := value
	switch value[len(value)-1] {
	case 'd':
		unit = 24 * time.Hour
		number = value[:len(value)-1]
	case 'h':
		unit = time.Hour
		number = value[:len(value)-1]
	case 'm':
		unit = time.Minute
		number = value[:len(value)-1]
	case 's':
		number = value[:len(value)-1]
	}

	n, err := strconv.Atoi(number)
	if err != nil {
		return 0, fmt.Errorf("invalid expiry %q: %w", value, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid expiry %q: must be positive", value)
	}

	return time.Duration(n) * unit, nil
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as booleans
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get token lifetimes, accepting day suffixes
func getEnvAsExpiry(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := ParseExpiry(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}
