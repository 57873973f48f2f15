package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

var ErrUnknownStorage = errors.New("unknown storage")

type Config struct {
	LogLevel      string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat     string        `yaml:"log-format" env:"LOG_FORMAT" env-default:"json"`
	HTTPAddr      string        `yaml:"http-addr" env:"HTTP_ADDR" env-default:":8080"`
	ComputerDelay time.Duration `yaml:"computer-delay" env:"COMPUTER_DELAY" env-default:"220ms"`
	Storage       string        `yaml:"storage" env:"STORAGE" env-default:"memory"`
	SessionTTL    time.Duration `yaml:"session-ttl" env:"SESSION_TTL" env-default:"1h"`
	Redis         Redis         `yaml:"redis"`

	// InstantComputer disables the computer delay. A zero computer-delay
	// reads as unset.
	InstantComputer bool `yaml:"instant-computer" env:"INSTANT_COMPUTER"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// Load reads path when it exists and falls back to the environment
// otherwise. Environment variables override file values in both cases.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if _, statErr := os.Stat(path); path != "" && statErr == nil {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err = config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations, panics on failure.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) validate() error {
	switch that.Storage {
	case StorageMemory, StorageRedis:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, that.Storage)
	}

	if that.ComputerDelay < 0 {
		return fmt.Errorf("computer-delay must not be negative: %s", that.ComputerDelay)
	}

	return nil
}

// ComputerMoveDelay is the pause before the computer replies.
func (that *Config) ComputerMoveDelay() time.Duration {
	if that.InstantComputer {
		return 0
	}

	return that.ComputerDelay
}

func (that *Redis) Addr() string {
	return net.JoinHostPort(that.Host, that.Port)
}
