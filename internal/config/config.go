package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/redis/go-redis/v9"
)

// Duration parses env as time.Duration: "10s", "5m" or a bare number of seconds.
type Duration time.Duration

// SetValue implements cleanenv.Setter.
func (d *Duration) SetValue(data string) error {
	v, err := parseDuration(data)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("duration must be like 10s, 5m or a number of seconds: %w", err)
	}
	return d, nil
}

// Client configures the chores CLI and TUI.
type Client struct {
	// URL is the chore server base URL; the page is fetched from its root.
	URL    string `env:"CHORES_URL" env-default:"http://127.0.0.1:5000"`
	Locale string `env:"CHORES_LOCALE" env-default:"en-US"`
	// Timeout of 0 means requests are never cut short.
	Timeout Duration `env:"CHORES_TIMEOUT" env-default:"0"`
	// LogFile receives TUI diagnostics.
	LogFile string `env:"CHORES_LOG" env-default:"chores.log"`
}

// Server configures choresd.
type Server struct {
	App   AppConfig
	HTTP  HTTPConfig
	Store StoreConfig
	Redis RedisConfig
}

type AppConfig struct {
	Env     string `env:"APP_ENV" env-default:"dev"`
	Version string `env:"VERSION" env-default:"dev"`
	// Variant selects the index form: "basic" or "extended".
	Variant string `env:"FORM_VARIANT" env-default:"basic"`
	// AuthToken, when set, guards the mutating routes.
	AuthToken string `env:"AUTH_TOKEN" env-default:""`
}

type HTTPConfig struct {
	Port         string   `env:"HTTP_PORT" env-default:"5000"`
	Host         string   `env:"HTTP_HOST" env-default:"127.0.0.1"`
	ReadTimeout  Duration `env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type StoreConfig struct {
	// Driver is one of json, sqlite, mysql, postgres.
	Driver string `env:"STORE_DRIVER" env-default:"json"`
	// DSN is a file path for json, a connection string otherwise.
	DSN string `env:"STORE_DSN" env-default:"todos.json"`
}

type RedisConfig struct {
	// Addr is "host:port". Empty disables the listing cache.
	Addr     string `env:"REDIS_ADDR" env-default:""`
	Password string `env:"REDIS_PASSWORD" env-default:""`
	DB       int    `env:"REDIS_DB" env-default:"0"`
	// URL overrides Addr/Password/DB if set. rediss:// enables TLS.
	URL        string   `env:"REDIS_URL" env-default:""`
	DefaultTTL Duration `env:"REDIS_DEFAULT_TTL" env-default:"60"`
}

// Options builds the go-redis client options, preferring URL so that
// rediss:// keeps its TLS settings and a URL username is honoured.
func (r RedisConfig) Options() (*redis.Options, error) {
	if u := strings.TrimSpace(r.URL); u != "" {
		return redis.ParseURL(u)
	}
	return &redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB}, nil
}

func LoadClient() (Client, error) {
	var cfg Client
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Client{}, fmt.Errorf("read env: %w", err)
	}
	if _, err := url.ParseRequestURI(cfg.URL); err != nil {
		return Client{}, fmt.Errorf("CHORES_URL: %w", err)
	}
	return cfg, nil
}

func LoadServer() (Server, error) {
	var cfg Server
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Server{}, fmt.Errorf("read env: %w", err)
	}
	if cfg.Redis.URL != "" {
		opts, err := cfg.Redis.Options()
		if err != nil {
			return Server{}, fmt.Errorf("REDIS_URL: %w", err)
		}
		cfg.Redis.Addr = opts.Addr
	}
	switch cfg.Store.Driver {
	case "json", "sqlite", "mysql", "postgres":
	default:
		return Server{}, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.Store.Driver)
	}
	return cfg, nil
}
