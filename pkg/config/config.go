package config

import (
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const defaultConfigPath = "./configs/.env"

var (
	once     sync.Once
	instance *Config
)

type Config struct {
}

// New loads CONFIG_PATH (./configs/.env by default) into the environment
// once. A missing file is fine, variables may come from the environment.
func New() *Config {
	once.Do(func() {
		path := os.Getenv("CONFIG_PATH")
		if path == "" {
			path = defaultConfigPath
		}
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("loading envs error", slog.String("path", path), slog.String("error", err.Error()))
		}
		instance = &Config{}
	})
	return instance
}

func (c *Config) GetString(key string) string {
	return os.Getenv(key)
}

func (c *Config) GetStringOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func (c *Config) GetInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func (c *Config) GetDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
