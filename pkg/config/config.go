package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// StorageConfig selects the durable key/value backend: memory, postgres or redis
type StorageConfig struct {
	Driver string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port            string
	Env             string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// JWTConfig holds the signing configuration for client tokens
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
	CookieName      string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Prefix string
}

// EventsConfig holds the order event broker configuration. No brokers means events are only logged.
type EventsConfig struct {
	Brokers           []string
	OrderCreatedTopic string
	OrderStatusTopic  string
	PublishTimeout    time.Duration
}

// CatalogConfig points at an optional dataset file overriding the embedded one
type CatalogConfig struct {
	Path string
}

// SearchConfig holds search configuration
type SearchConfig struct {
	Delay time.Duration
}

// CheckoutConfig holds shipping rules
type CheckoutConfig struct {
	ShippingCost          float64
	FreeShippingThreshold float64
}

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Redis       RedisConfig
	Storage     StorageConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Metrics     MetricsConfig
	Events      EventsConfig
	Catalog     CatalogConfig
	Search      SearchConfig
	Checkout    CheckoutConfig
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "farmacia"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(getEnv("STORAGE_DRIVER", "postgres")),
		},
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "development"),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			AllowedOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", "defaultsecretkey"),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24*30),
			CookieName:      getEnv("CLIENT_COOKIE_NAME", "farmacia_client"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Metrics: MetricsConfig{
			Prefix: getEnv("METRICS_PREFIX", "storefront"),
		},
		Events: EventsConfig{
			Brokers:           getEnvAsList("KAFKA_BROKERS", nil),
			OrderCreatedTopic: getEnv("KAFKA_ORDER_CREATED_TOPIC", "orders.created"),
			OrderStatusTopic:  getEnv("KAFKA_ORDER_STATUS_TOPIC", "orders.status_updated"),
			PublishTimeout:    getEnvAsDuration("KAFKA_PUBLISH_TIMEOUT", 5*time.Second),
		},
		Catalog: CatalogConfig{
			Path: getEnv("CATALOG_PATH", ""),
		},
		Search: SearchConfig{
			Delay: getEnvAsDuration("SEARCH_DELAY", 0),
		},
		Checkout: CheckoutConfig{
			ShippingCost:          getEnvAsFloat("SHIPPING_COST", 1500),
			FreeShippingThreshold: getEnvAsFloat("FREE_SHIPPING_THRESHOLD", 15000),
		},
	}

	switch config.Storage.Driver {
	case "memory", "postgres", "redis":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", config.Storage.Driver)
	}

	return config, nil
}

// LogConfig returns the configuration as zap fields
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("storage_driver", c.Storage.Driver),
		zap.String("server_port", c.Server.Port),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, dropping empty items
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

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
