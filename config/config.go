// Package config loads the application configuration from the
// environment and exposes it through the getter interfaces the clinic
// core consumes.
package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type AppConfig struct {
	Server      Server      `env:", prefix=SERVER_"`
	Auth        Auth        `env:", prefix=AUTH_"`
	Persistence Persistence `env:", prefix=DB_"`
}

type Server struct {
	Addr  string `env:"ADDR,  default=:3000"`
	Env   string `env:"ENV,   default=development"`
	Debug bool   `env:"DEBUG, default=false"`
}

type Auth struct {
	SigningKey      string   `env:"SIGNING_KEY"`
	SigningMethod   string   `env:"SIGNING_METHOD,   default=HS256"`
	ContextKey      string   `env:"CONTEXT_KEY,      default=user"`
	TokenExpiration int      `env:"TOKEN_EXPIRATION, default=168"`
	TokenLookup     string   `env:"TOKEN_LOOKUP,     default=header:Authorization"`
	AuthScheme      string   `env:"AUTH_SCHEME,      default=Bearer"`
	Issuer          string   `env:"ISSUER,           default=clinic"`
	Audience        []string `env:"AUDIENCE,         default=clinic"`
}

type Persistence struct {
	Driver                string `env:"DRIVER,       default=sqlite"`
	DSN                   string `env:"DSN,          default=file:clinic.db?cache=shared&_pragma=foreign_keys(1)"`
	Debug                 bool   `env:"DEBUG,        default=false"`
	PingTimeoutExpression string `env:"PING_TIMEOUT, default=5s"`
}

// Load reads configuration from environment variables.
func Load(ctx context.Context) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := envconfig.Process(ctx, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a AppConfig) GetAuth() Auth               { return a.Auth }
func (a AppConfig) GetServer() Server           { return a.Server }
func (a AppConfig) GetPersistence() Persistence { return a.Persistence }

func (a Auth) GetSigningKey() string    { return a.SigningKey }
func (a Auth) GetSigningMethod() string { return a.SigningMethod }
func (a Auth) GetContextKey() string    { return a.ContextKey }
func (a Auth) GetTokenExpiration() int  { return a.TokenExpiration }
func (a Auth) GetTokenLookup() string   { return a.TokenLookup }
func (a Auth) GetAuthScheme() string    { return a.AuthScheme }
func (a Auth) GetIssuer() string        { return a.Issuer }
func (a Auth) GetAudience() []string    { return a.Audience }

func (s Server) GetAddr() string { return s.Addr }
func (s Server) GetEnv() string  { return s.Env }
func (s Server) GetDebug() bool  { return s.Debug }

func (p Persistence) GetDriver() string { return p.Driver }
func (p Persistence) GetDSN() string    { return p.DSN }
func (p Persistence) GetServer() string { return p.DSN }
func (p Persistence) GetDebug() bool    { return p.Debug }

func (p Persistence) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		return 5 * time.Second
	}
	return dur
}
