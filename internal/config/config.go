package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/zaidAlkhathlan/ramdan/internal/riddle"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Riddle struct {
		TTL string `yaml:"ttl"`
		// Answering window as clock times ("18:00"); both empty means unbounded.
		WindowStart string `yaml:"window_start"`
		WindowEnd   string `yaml:"window_end"`
	} `yaml:"riddle"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Window builds the answering window from the configured clock times.
func (c Config) Window() (riddle.Window, error) {
	if c.Riddle.WindowStart == "" && c.Riddle.WindowEnd == "" {
		return riddle.Window{}, nil
	}
	start, err := clockOffset(c.Riddle.WindowStart)
	if err != nil {
		return riddle.Window{}, fmt.Errorf("riddle.window_start: %w", err)
	}
	end, err := clockOffset(c.Riddle.WindowEnd)
	if err != nil {
		return riddle.Window{}, fmt.Errorf("riddle.window_end: %w", err)
	}
	return riddle.Window{Start: start, End: end}, nil
}

func clockOffset(raw string) (time.Duration, error) {
	t, err := time.Parse("15:04", raw)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
