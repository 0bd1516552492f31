package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	API       APIConfig       `yaml:"api"`
	Display   DisplayConfig   `yaml:"display"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// APIConfig holds remote API configuration
type APIConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"` // 0 means no client timeout
}

// DisplayConfig holds view and notification settings
type DisplayConfig struct {
	PageSize        int           `yaml:"page_size"`
	NotificationTTL time.Duration `yaml:"notification_ttl"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StorageConfig holds archive storage configuration
type StorageConfig struct {
	Type          string `yaml:"type"`   // "memory", "dynamodb", "mongodb", "postgresql"
	Region        string `yaml:"region"` // For AWS DynamoDB
	TableName     string `yaml:"table_name"`
	Endpoint      string `yaml:"endpoint"` // Custom endpoint for local testing
	MongoDBURI    string `yaml:"mongodb_uri"`
	MongoDatabase string `yaml:"mongodb_database"`
	PostgresURI   string `yaml:"postgres_uri"`
}

// TelemetryConfig holds tracing configuration
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name"`
	ServiceVersion string `yaml:"service_version"` // empty means the build version
	Stdout         bool   `yaml:"stdout"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		API: APIConfig{
			Endpoint: "https://jsonplaceholder.typicode.com/posts",
		},
		Display: DisplayConfig{
			PageSize:        10,
			NotificationTTL: 3 * time.Second,
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Storage: StorageConfig{
			Type:          "memory",
			Region:        "us-west-2",
			TableName:     "archived_posts",
			MongoDatabase: "posts",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "posts-client",
		},
	}
}

// Load loads configuration from an optional YAML file, then environment
// variables. An empty path falls back to CONFIG_FILE.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.API.Endpoint = getEnv("API_ENDPOINT", cfg.API.Endpoint)
	cfg.API.Timeout = getEnvDuration("API_TIMEOUT", cfg.API.Timeout)
	cfg.Display.PageSize = getEnvInt("PAGE_SIZE", cfg.Display.PageSize)
	cfg.Display.NotificationTTL = getEnvDuration("NOTIFICATION_TTL", cfg.Display.NotificationTTL)
	cfg.Server.Port = getEnvInt("SERVER_PORT", cfg.Server.Port)
	cfg.Storage.Type = getEnv("STORAGE_TYPE", cfg.Storage.Type)
	cfg.Storage.Region = getEnv("AWS_REGION", cfg.Storage.Region)
	cfg.Storage.TableName = getEnv("TABLE_NAME", cfg.Storage.TableName)
	cfg.Storage.Endpoint = getEnv("DYNAMODB_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.MongoDBURI = getEnv("MONGODB_URI", cfg.Storage.MongoDBURI)
	cfg.Storage.MongoDatabase = getEnv("MONGODB_DATABASE", cfg.Storage.MongoDatabase)
	cfg.Storage.PostgresURI = getEnv("POSTGRES_URI", cfg.Storage.PostgresURI)
	cfg.Telemetry.ServiceName = getEnv("OTEL_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.ServiceVersion = getEnv("OTEL_SERVICE_VERSION", cfg.Telemetry.ServiceVersion)
	cfg.Telemetry.Stdout = getEnvBool("OTEL_STDOUT", cfg.Telemetry.Stdout)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the rest of the program cannot work with
func (c *Config) Validate() error {
	if c.API.Endpoint == "" {
		return errors.New("api endpoint must not be empty")
	}
	if c.Display.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", c.Display.PageSize)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api timeout must not be negative, got %s", c.API.Timeout)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
