// Package config loads the switchboard configuration from .env, an optional
// TOML file and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DefaultBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModelName = "gemini-2.0-flash"
)

type Config struct {
	LogLevel string         `toml:"log_level"`
	LLM      LLMConfig      `toml:"llm"`
	Stripe   StripeConfig   `toml:"stripe"`
	DB       DBConfig       `toml:"db"`
	NATS     NATSConfig     `toml:"nats"`
	Temporal TemporalConfig `toml:"temporal"`
	OTel     OTelConfig     `toml:"otel"`
	Server   ServerConfig   `toml:"server"`
}

// LLMConfig points at a chat-completions compatible endpoint.
type LLMConfig struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

type StripeConfig struct {
	SecretKey string `toml:"secret_key"`
}

type DBConfig struct {
	Path string `toml:"path"`
}

type NATSConfig struct {
	URL           string `toml:"url"`
	SubjectPrefix string `toml:"subject_prefix"`
}

type TemporalConfig struct {
	Address   string `toml:"address"`
	Namespace string `toml:"namespace"`
	TaskQueue string `toml:"task_queue"`
}

type OTelConfig struct {
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
	Insecure bool   `toml:"insecure"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		LLM: LLMConfig{
			Model:   DefaultModelName,
			BaseURL: DefaultBaseURL,
		},
		DB: DBConfig{
			Path: defaultDBPath(),
		},
		NATS: NATSConfig{
			SubjectPrefix: "switchboard.tracing",
		},
		Temporal: TemporalConfig{
			Namespace: "default",
			TaskQueue: "dispute-processing",
		},
		Server: ServerConfig{
			Addr: ":8484",
		},
	}
}

// Load reads .env from the working directory, then the TOML file at path (or
// the default location when path is empty) and finally the environment.
// An explicit path must exist; the default file is optional.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	set(&c.LogLevel, "LOG_LEVEL")
	set(&c.LLM.APIKey, "GEMINI_API_KEY", "OPENAI_API_KEY")
	set(&c.LLM.BaseURL, "BASE_URL")
	set(&c.LLM.Model, "MODEL_NAME")
	set(&c.Stripe.SecretKey, "STRIPE_SECRET_KEY")
	set(&c.DB.Path, "SWITCHBOARD_DB")
	set(&c.NATS.URL, "NATS_URL")
	set(&c.Temporal.Address, "TEMPORAL_ADDRESS")
	set(&c.OTel.Endpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// ValidateLLM reports the missing settings needed to call the model.
func (c *Config) ValidateLLM() error {
	var err error
	if c.LLM.APIKey == "" {
		err = errors.Join(err, errors.New("GEMINI_API_KEY is not set"))
	}
	if c.LLM.BaseURL == "" {
		err = errors.Join(err, errors.New("BASE_URL is not set"))
	}
	if c.LLM.Model == "" {
		err = errors.Join(err, errors.New("MODEL_NAME is not set"))
	}
	return err
}

// ValidateStripe reports a missing payments API key.
func (c *Config) ValidateStripe() error {
	if c.Stripe.SecretKey == "" {
		return errors.New("STRIPE_SECRET_KEY is not set")
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/switchboard/config.toml or its platform equivalent.
func DefaultPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "switchboard", "config.toml")
}

func defaultDBPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, ".local", "share", "switchboard", "switchboard.db")
}
