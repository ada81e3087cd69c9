package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	RatesAPI RatesAPIConfig
	Cache    CacheConfig
	Query    QueryConfig
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type RatesAPIConfig struct {
	BaseURL                 string
	Timeout                 time.Duration
	CurrencyListRefreshRate time.Duration
}

type CacheConfig struct {
	Backend   string
	TTL       time.Duration
	RedisAddr string
}

type QueryConfig struct {
	HistoryDays int
	MaxPastDays int
}

func LoadConfig() (*Config, error) {
	// .env is a developer convenience; absence is not an error.
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 5*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		RatesAPI: RatesAPIConfig{
			BaseURL:                 getEnvString("RATES_API_BASE_URL", "https://cdn.jsdelivr.net/npm/@fawazahmed0/currency-api"),
			Timeout:                 getEnvDuration("RATES_API_TIMEOUT", 10*time.Second),
			CurrencyListRefreshRate: getEnvDuration("CURRENCY_LIST_REFRESH_RATE", 12*time.Hour),
		},
		Cache: CacheConfig{
			Backend:   getEnvString("CACHE_BACKEND", "memory"),
			TTL:       getEnvDuration("CACHE_TTL", 6*time.Hour),
			RedisAddr: getEnvString("CACHE_REDIS_ADDR", "localhost:6379"),
		},
		Query: QueryConfig{
			HistoryDays: getEnvInt("QUERY_HISTORY_DAYS", 7),
			MaxPastDays: getEnvInt("QUERY_MAX_PAST_DAYS", 90),
		},
	}

	if config.Cache.Backend != "memory" && config.Cache.Backend != "redis" {
		return nil, fmt.Errorf("unsupported cache backend: %s", config.Cache.Backend)
	}

	return config, nil
}

func getEnvString(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		fmt.Printf("Warning: Invalid value for %s, using default: %d\n", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		fmt.Printf("Warning: Invalid duration for %s, using default: %s\n", key, defaultValue)
		return defaultValue
	}

	return value
}
