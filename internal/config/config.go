package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	BotToken         string  `env:"TELEGRAM_BOT_TOKEN"`
	DatabaseURL      string  `env:"DATABASE_URL"`
	DBPoolMinSize    int32   `env:"DB_POOL_MIN_SIZE" envDefault:"1"`
	DBPoolMaxSize    int32   `env:"DB_POOL_MAX_SIZE" envDefault:"10"`
	AppPort          string  `env:"APP_PORT" envDefault:"8080"`
	AdminTelegramIDs []int64 `env:"ADMIN_TELEGRAM_IDS" envSeparator:","`

	// матчи
	MaxPlayersPerMatch int           `env:"MAX_PLAYERS_PER_MATCH" envDefault:"10"`
	MatchTimeout       time.Duration `env:"MATCH_TIMEOUT" envDefault:"10m"`
	TurnTimeout        time.Duration `env:"TURN_TIMEOUT" envDefault:"15s"`
	WarningTimeout     time.Duration `env:"WARNING_TIMEOUT" envDefault:"10s"`
	RoundsPerMatch     int           `env:"ROUNDS_PER_MATCH" envDefault:"20"`
	OffsideChance      float64       `env:"OFFSIDE_CHANCE" envDefault:"0.3"`
	SweepInterval      time.Duration `env:"SWEEP_INTERVAL" envDefault:"30s"`

	// redis для лимита команд; пустой адрес - лимит в памяти
	RedisAddr        string `env:"REDIS_ADDR"`
	RedisPassword    string `env:"REDIS_PASSWORD"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`
	CommandRateLimit int    `env:"COMMAND_RATE_LIMIT" envDefault:"20"`

	// пустой AMQP_URL - события не экспортируются
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"hand_hockey.events"`

	JWTSecret     string `env:"JWT_SECRET"`
	AllowedOrigin string `env:"ALLOWED_ORIGIN" envDefault:"*"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("TELEGRAM_BOT_TOKEN не задан"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL не задан"))
	}
	if c.MaxPlayersPerMatch < 2 {
		errs = append(errs, fmt.Errorf("MAX_PLAYERS_PER_MATCH=%d: нужно минимум 2", c.MaxPlayersPerMatch))
	}
	if c.OffsideChance < 0 || c.OffsideChance > 1 {
		errs = append(errs, fmt.Errorf("OFFSIDE_CHANCE=%v вне [0,1]", c.OffsideChance))
	}
	if c.DBPoolMinSize > c.DBPoolMaxSize {
		errs = append(errs, fmt.Errorf("DB_POOL_MIN_SIZE=%d больше DB_POOL_MAX_SIZE=%d", c.DBPoolMinSize, c.DBPoolMaxSize))
	}
	return errors.Join(errs...)
}

// JSONLogs - писать логи в json
func (c *Config) JSONLogs() bool {
	return c.LogFormat == "json"
}

// IsAdmin проверяет telegram id по списку админов
func (c *Config) IsAdmin(id int64) bool {
	for _, a := range c.AdminTelegramIDs {
		if a == id {
			return true
		}
	}
	return false
}
