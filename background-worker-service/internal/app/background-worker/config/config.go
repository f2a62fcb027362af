package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config содержит настройки Background Worker Service
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	MongoDB   MongoDBConfig
	Kafka     KafkaConfig
	Reconcile ReconcileConfig
}

type ServerConfig struct {
	Port string // Порт health и metrics сервера
}

// DatabaseConfig - PostgreSQL для журнала сверок
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string // disable/require/verify-full
}

// MongoDBConfig - база Products Service, где лежат продукты и реестр голосов
type MongoDBConfig struct {
	URI      string
	Database string
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string // product_events
	GroupID  string
	MinBytes int
	MaxBytes int
}

type ReconcileConfig struct {
	Schedule string // cron выражение или @every, например "@every 15m"
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	minBytes, err := getEnvInt("KAFKA_MIN_BYTES", 1)
	if err != nil {
		return nil, err
	}
	maxBytes, err := getEnvInt("KAFKA_MAX_BYTES", 10e6)
	if err != nil {
		return nil, err
	}

	schedule := getEnv("RECONCILE_SCHEDULE", "@every 15m")
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid RECONCILE_SCHEDULE: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "launchpad_worker"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			Database: getEnv("MONGODB_DATABASE", "launchpad"),
		},
		Kafka: KafkaConfig{
			Brokers:  splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:    getEnv("KAFKA_TOPIC", "product_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "background-worker-group"),
			MinBytes: minBytes,
			MaxBytes: maxBytes,
		},
		Reconcile: ReconcileConfig{
			Schedule: schedule,
		},
	}, nil
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *ServerConfig) Address() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
