package config

import (
	"github.com/caarlos0/env/v11"
	appenv "github.com/mtreharne/focusbeat/internal/env"
)

type Server struct {
	Port    string             `env:"PORT" envDefault:"8080"`
	Env     appenv.Environment `env:"ENV" envDefault:"development"`
	BaseURL string             `env:"BASE_URL" envDefault:"http://localhost:8080"`

	// APIKey optionally guards the /api routes. Empty disables the check.
	APIKey string `env:"API_KEY"`

	Database  Database  `envPrefix:"DATABASE_"`
	Redis     Redis     `envPrefix:"REDIS_"`
	Oura      Oura      `envPrefix:"OURA_"`
	RateLimit RateLimit `envPrefix:"RATE_"`
}

type Database struct {
	URL string `env:"URL,required"`
}

// Redis is optional; an empty URL selects the in-memory backend.
type Redis struct {
	URL string `env:"URL"`
}

// Oura client credentials are optional. When absent the integration
// reports "not configured" instead of erroring.
type Oura struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

func (o Oura) Configured() bool {
	return o.ClientID != "" && o.ClientSecret != ""
}

type RateLimit struct {
	Limit float64 `env:"LIMIT" envDefault:"10"`
	Burst int     `env:"BURST" envDefault:"20"`
}

func ReadServer() (Server, error) {
	return env.ParseAs[Server]()
}

type Client struct {
	ServerURL string `env:"FOCUSBEAT_SERVER_URL" envDefault:"http://localhost:8080"`
	APIKey    string `env:"FOCUSBEAT_API_KEY"`
	UserID    string `env:"FOCUSBEAT_USER_ID"`
}

func ReadClient() (Client, error) {
	return env.ParseAs[Client]()
}
