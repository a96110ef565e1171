package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Драйверы хранилища.
const (
	PostgresDriver = "postgres"
	MemoryDriver   = "memory"
)

// Config - структура для хранения конфигураций приложения
type Config struct {
	ServerAddress  string        `mapstructure:"SERVER_ADDRESS"`
	PostgresConn   string        `mapstructure:"POSTGRES_CONN"`
	PostgresURL    string        `mapstructure:"POSTGRES_JDBC_URL"`
	PostgresUser   string        `mapstructure:"POSTGRES_USERNAME"`
	PostgresPass   string        `mapstructure:"POSTGRES_PASSWORD"`
	PostgresHost   string        `mapstructure:"POSTGRES_HOST"`
	PostgresPort   string        `mapstructure:"POSTGRES_PORT"`
	PostgresDB     string        `mapstructure:"POSTGRES_DATABASE"`
	MigrationURL   string        `mapstructure:"MIGRATION_URL"`
	StorageDriver  string        `mapstructure:"STORAGE_DRIVER"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`

	KafkaBrokers           string        `mapstructure:"KAFKA_BROKERS"`
	KafkaNotificationTopic string        `mapstructure:"KAFKA_NOTIFICATION_TOPIC"`
	NotifyTimeout          time.Duration `mapstructure:"NOTIFY_TIMEOUT"`

	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisChannelPrefix string `mapstructure:"REDIS_CHANNEL_PREFIX"`
}

var defaults = map[string]interface{}{
	"SERVER_ADDRESS":           ":8080",
	"STORAGE_DRIVER":           PostgresDriver,
	"MIGRATION_URL":            "file://migrations",
	"REQUEST_TIMEOUT":          5 * time.Second,
	"LOG_LEVEL":                "info",
	"KAFKA_NOTIFICATION_TOPIC": "marketplace-notifications",
	"NOTIFY_TIMEOUT":           3 * time.Second,
	"REDIS_CHANNEL_PREFIX":     "tender",
}

// keys - все ключи конфигурации; нужны, чтобы переменные окружения читались без файла.
var keys = []string{
	"SERVER_ADDRESS", "POSTGRES_CONN", "POSTGRES_JDBC_URL", "POSTGRES_USERNAME", "POSTGRES_PASSWORD",
	"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DATABASE", "MIGRATION_URL", "STORAGE_DRIVER",
	"REQUEST_TIMEOUT", "LOG_LEVEL", "KAFKA_BROKERS", "KAFKA_NOTIFICATION_TOPIC", "NOTIFY_TIMEOUT",
	"REDIS_ADDR", "REDIS_CHANNEL_PREFIX",
}

// LoadConfig загружает конфигурацию из файла app.env в path и из переменных окружения.
// Файл необязателен; переменные окружения имеют приоритет.
func LoadConfig(path string) (cfg Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for _, key := range keys {
		if err = v.BindEnv(key); err != nil {
			return
		}
	}

	if err = v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return
		}
		err = nil
	}
	if err = v.Unmarshal(&cfg); err != nil {
		return
	}
	err = cfg.Validate()
	return
}

// Validate проверяет согласованность конфигурации.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case PostgresDriver:
		if c.PostgresConn == "" {
			return fmt.Errorf("POSTGRES_CONN is required for the %s storage driver", PostgresDriver)
		}
	case MemoryDriver:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q, expected %s or %s", c.StorageDriver, PostgresDriver, MemoryDriver)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// Brokers возвращает список брокеров Kafka из KAFKA_BROKERS (через запятую).
func (c Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
