package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// Config содержит настройки приложения
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	Server    ServerConfig    `envPrefix:"SERVER_"`
	Database  DatabaseConfig  `envPrefix:"DB_"`
	Log       LogConfig       `envPrefix:"LOG_"`
	Scheduler SchedulerConfig `envPrefix:"SCHEDULER_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	RabbitMQ  RabbitMQConfig  `envPrefix:"RABBITMQ_"`
	Metrics   MetricsConfig   `envPrefix:"METRICS_"`
}

// ServerConfig - настройки HTTP сервера
type ServerConfig struct {
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout     time.Duration `env:"IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// DatabaseConfig - настройки подключения к БД
type DatabaseConfig struct {
	Host         string `env:"HOST" envDefault:"localhost"`
	Port         string `env:"PORT" envDefault:"5432"`
	User         string `env:"USER" envDefault:"postgres"`
	Password     string `env:"PASSWORD" envDefault:"postgres"`
	DBName       string `env:"NAME" envDefault:"staffing"`
	SSLMode      string `env:"SSLMODE" envDefault:"disable"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
	ConnectTries int    `env:"CONNECT_TRIES" envDefault:"30"`
}

// DSN возвращает строку подключения к PostgreSQL
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// LogConfig - уровень и формат логов
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// SchedulerConfig - настройки ежедневных проходов
type SchedulerConfig struct {
	Enabled  bool          `env:"ENABLED" envDefault:"true"`
	Interval time.Duration `env:"INTERVAL" envDefault:"1h"`
	Timezone string        `env:"TIMEZONE" envDefault:"UTC"`
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"25h"`
}

// Location возвращает часовой пояс, в котором определяется "сегодня"
func (c *SchedulerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// RedisConfig - пустой Addr отключает распределённую блокировку
type RedisConfig struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// RabbitMQConfig - пустой URL отключает публикацию событий
type RabbitMQConfig struct {
	URL      string `env:"URL"`
	Exchange string `env:"EXCHANGE" envDefault:"staffing.events"`
}

type MetricsConfig struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Path    string `env:"PATH" envDefault:"/metrics"`
}

// Load загружает .env файлы (если есть) и конфигурацию из переменных окружения
func Load(envFiles ...string) (*Config, error) {
	existing := make([]string, 0, len(envFiles))
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) > 0 {
		if err := godotenv.Load(existing...); err != nil {
			return nil, errors.Wrap(err, "load env files")
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		var aggErr env.AggregateError
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			return nil, aggErr.Errors[0]
		}
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет ключевые параметры
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("config: server port must be in 1-65535, got %d", c.Server.Port)
	}
	if c.Scheduler.Interval <= 0 {
		return errors.New("config: scheduler interval must be positive")
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return errors.Wrapf(err, "config: unknown scheduler timezone %q", c.Scheduler.Timezone)
	}
	return nil
}
