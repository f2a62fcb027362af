package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Products ProductsConfig
}

type ServerConfig struct {
	Host           string   // Адрес хоста (по умолчанию 0.0.0.0)
	Port           string   // Порт сервера (по умолчанию 8083)
	AllowedOrigins []string // Origins для CORS
}

type MongoDBConfig struct {
	URI      string // URI подключения к MongoDB
	Database string // Имя базы данных
	// Transactions включает транзакции для голосов и каскадного удаления.
	// Требует replica set, на standalone MongoDB нужно выключить
	Transactions bool
}

// RedisConfig - кеш категорий и черный список токенов (общий с Auth Service)
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string // Список брокеров Kafka (формат: host:port)
	Topic   string   // Топик событий продуктов
}

type JWTConfig struct {
	Secret string // Секретный ключ для проверки JWT токенов (должен совпадать с Auth Service)
}

type ProductsConfig struct {
	RequireApproval    bool          // Новые продукты ждут модерации
	CategoriesCacheTTL time.Duration // Время жизни кеша статистики категорий
}

func Load() (*Config, error) {
	// .env опционален, переменные окружения имеют приоритет
	_ = godotenv.Load(".env")

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	transactions, err := getEnvBool("MONGODB_TRANSACTIONS", true)
	if err != nil {
		return nil, err
	}

	requireApproval, err := getEnvBool("PRODUCTS_REQUIRE_APPROVAL", false)
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(getEnv("CATEGORIES_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CATEGORIES_CACHE_TTL: %w", err)
	}

	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8083"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		MongoDB: MongoDBConfig{
			URI:          getEnv("MONGODB_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
			Database:     getEnv("MONGODB_DATABASE", "launchpad"),
			Transactions: transactions,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "product_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Products: ProductsConfig{
			RequireApproval:    requireApproval,
			CategoriesCacheTTL: cacheTTL,
		},
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// splitList разбирает список через запятую, пустые элементы отбрасываются
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
