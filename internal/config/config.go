package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

// Config holds the settings both binaries read from the environment.
type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	LogFile     string

	StorefrontAddr string
	CartAPIURL     string
	CartAPITimeout time.Duration

	CartStoreAddr string
	StoreDriver   string
	DatabaseURL   string

	ShutdownTimeout time.Duration
}

// Load reads the environment, applying defaults for unset keys.
// serviceName is the default for SERVICE_NAME.
func Load(serviceName string) (Config, error) {
	cfg := Config{
		ServiceName:    getenvDefault("SERVICE_NAME", serviceName),
		Env:            getenvDefault("ENV", "dev"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFile:        os.Getenv("LOG_FILE"),
		StorefrontAddr: getenvDefault("STOREFRONT_ADDR", ":8080"),
		CartAPIURL:     getenvDefault("CART_API_URL", "http://localhost:3000"),
		CartStoreAddr:  getenvDefault("CARTSTORE_ADDR", ":3000"),
		StoreDriver:    getenvDefault("STORE_DRIVER", DriverMemory),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
	}

	var err error
	if cfg.CartAPITimeout, err = durationDefault("CART_API_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.ShutdownTimeout, err = durationDefault("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	u, err := url.Parse(c.CartAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: CART_API_URL %q must be an absolute URL", c.CartAPIURL)
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL is required when STORE_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s must be positive, got %s", key, v)
	}
	return d, nil
}
