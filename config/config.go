package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds process configuration read from the environment.
type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	DatabaseURL    string        `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns     int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	MigrateOnStart bool          `env:"MIGRATE_ON_START" envDefault:"true"`
	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	NotifyTimeout  time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"2s"`

	Redis RedisConfig
	Kafka KafkaConfig
}

// RedisConfig configures the realtime notification publisher. Empty Addr disables it.
type RedisConfig struct {
	Addr          string `env:"REDIS_ADDR"`
	ChannelPrefix string `env:"REDIS_CHANNEL_PREFIX" envDefault:"notifications"`
}

// KafkaConfig configures the notification event stream. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"notifications"`
}

// Load reads an optional .env file and then parses the environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load .env: %w", err)
	}
	return Parse()
}

// Parse reads configuration from the environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("config: REQUEST_TIMEOUT must be positive")
	}
	if cfg.NotifyTimeout <= 0 {
		return Config{}, fmt.Errorf("config: NOTIFY_TIMEOUT must be positive")
	}
	return cfg, nil
}

// IsProduction reports whether the process runs with production settings.
func (c Config) IsProduction() bool {
	return c.AppEnv == "prod" || c.AppEnv == "production"
}
