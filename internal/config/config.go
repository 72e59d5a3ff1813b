// Package config loads the pipeline editor configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when none is given.
const DefaultPath = "pipeline.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the full editor configuration.
type Config struct {
	Validator ValidatorConfig `yaml:"validator" json:"validator"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	Server    ServerConfig    `yaml:"server" json:"server"`
	Log       LogConfig       `yaml:"log" json:"log"`
}

// ValidatorConfig points at the remote pipeline validator.
type ValidatorConfig struct {
	Endpoint string `yaml:"endpoint" json:"endpoint" validate:"required,url"`
}

// StoreConfig selects the graph store.
type StoreConfig struct {
	Backend string      `yaml:"backend" json:"backend" validate:"oneof=memory redis"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig configures the redis graph store and locker.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr" validate:"omitempty,hostname_port"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db" validate:"gte=0,lte=15"`
	Prefix   string `yaml:"prefix" json:"prefix"`
}

// ServerConfig configures the editor HTTP API.
type ServerConfig struct {
	Addr           string   `yaml:"addr" json:"addr" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins" validate:"dive,url"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `yaml:"level" json:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Validator: ValidatorConfig{Endpoint: "http://localhost:8000/pipelines/parse"},
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "pipeline:graph:"},
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := newValidator().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		sc := sl.Current().Interface().(StoreConfig)
		if sc.Backend == BackendRedis && sc.Redis.Addr == "" {
			sl.ReportError(sc.Redis.Addr, "Redis.Addr", "Addr", "required_for_redis", "")
		}
	}, StoreConfig{})
	return v
}
