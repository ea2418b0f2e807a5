package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel        string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort        string        `yaml:"http-port" env:"SERVER_PORT" env-default:"3000"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT" env-default:"5s"`
	Game            Game          `yaml:"game"`
	Websocket       Websocket     `yaml:"websocket"`
	Registry        Registry      `yaml:"registry"`
	Redis           Redis         `yaml:"redis"`
}

type Game struct {
	LedgerCapacity int `yaml:"ledger-capacity" env:"GAME_LEDGER_CAPACITY" env-default:"7"`
	MaxIDAttempts  int `yaml:"max-id-attempts" env:"GAME_MAX_ID_ATTEMPTS" env-default:"100"`
}

type Websocket struct {
	AllowedOrigins    []string      `yaml:"allowed-origins" env:"WS_ALLOWED_ORIGINS" env-default:"*" env-separator:","`
	ReadLimit         int64         `yaml:"read-limit" env:"WS_READ_LIMIT" env-default:"4096"`
	PingPeriod        time.Duration `yaml:"ping-period" env:"WS_PING_PERIOD" env-default:"30s"`
	PongWait          time.Duration `yaml:"pong-wait" env:"WS_PONG_WAIT" env-default:"60s"`
	WriteWait         time.Duration `yaml:"write-wait" env:"WS_WRITE_WAIT" env-default:"10s"`
	SendBuffer        int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"32"`
	MessagesPerSecond float64       `yaml:"messages-per-second" env:"WS_MESSAGES_PER_SECOND" env-default:"10"`
	Burst             int           `yaml:"burst" env:"WS_BURST" env-default:"20"`
}

type Registry struct {
	Backend        string        `yaml:"backend" env:"REGISTRY_BACKEND" env-default:"memory"`
	ReservationTTL time.Duration `yaml:"reservation-ttl" env:"REGISTRY_RESERVATION_TTL" env-default:"2h"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// Load reads path and the environment on top of it. A missing file leaves
// only the environment and the defaults.
func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read env: %w", err)
		}
	} else if err = cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch {
	case !slices.Contains([]string{"debug", "info", "warn", "error"}, that.LogLevel):
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, that.LogLevel)
	case that.Game.LedgerCapacity < 1:
		return fmt.Errorf("%w: ledger capacity must be positive", ErrInvalidConfig)
	case that.Game.MaxIDAttempts < 1:
		return fmt.Errorf("%w: max id attempts must be positive", ErrInvalidConfig)
	case that.Registry.Backend != BackendMemory && that.Registry.Backend != BackendRedis:
		return fmt.Errorf("%w: unknown registry backend %q", ErrInvalidConfig, that.Registry.Backend)
	case that.Websocket.PingPeriod >= that.Websocket.PongWait:
		return fmt.Errorf("%w: ping period must be shorter than pong wait", ErrInvalidConfig)
	case that.Websocket.SendBuffer < 1 || that.Websocket.Burst < 1 || that.Websocket.MessagesPerSecond <= 0:
		return fmt.Errorf("%w: websocket buffer and rate limits must be positive", ErrInvalidConfig)
	}

	return nil
}

// AllowsAnyOrigin reports whether the origin list contains the "*" wildcard.
func (that *Websocket) AllowsAnyOrigin() bool {
	return slices.Contains(that.AllowedOrigins, "*")
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
