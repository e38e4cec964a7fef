package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Server  ServerConfig  `envPrefix:"SERVER_"`
	API     APIConfig     `envPrefix:"API_"`
	Socket  SocketConfig  `envPrefix:"SOCKET_"`
	Session SessionConfig `envPrefix:"SESSION_"`
	Chat    ChatConfig    `envPrefix:"CHAT_"`
}

// ServerConfig configures the local gateway the UI talks to.
type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:"127.0.0.1:8084"`
}

// APIConfig points at the backend REST API.
type APIConfig struct {
	BaseURL string        `env:"BASE_URL" envDefault:"http://localhost:4000"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`
}

// SocketConfig points at the live event channel endpoint.
type SocketConfig struct {
	URL string `env:"URL" envDefault:"ws://localhost:4000/socket"`
}

type SessionConfig struct {
	Email    string `env:"EMAIL"`
	Password string `env:"PASSWORD"`
	// AccessToken skips the login flow when set (pre-issued credential).
	AccessToken string `env:"ACCESS_TOKEN"`
}

type ChatConfig struct {
	// PageSize is the history page size; a short page ends backfill.
	PageSize int `env:"PAGE_SIZE" envDefault:"30"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
