package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

var (
	ErrMissingToken   = errors.New("BOT_TOKEN is required")
	ErrMissingWebhook = errors.New("DISCORD_WEBHOOK_URL is required")
	ErrInvalidValue   = errors.New("invalid config value")
)

// DefaultTopCount is the ranking size used when nothing is configured.
const DefaultTopCount = 10

// EnvGetter abstracts environment variable access for DI
type EnvGetter interface {
	Getenv(key string) string
}

// FileReader abstracts config file access for DI
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// osEnvGetter is the default implementation using os.Getenv
type osEnvGetter struct{}

func (o *osEnvGetter) Getenv(key string) string {
	return os.Getenv(key)
}

type osFileReader struct{}

func (o *osFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

type Config struct {
	BotToken   string `yaml:"bot_token"`
	GuildID    string `yaml:"guild_id"` // optional: for faster command registration
	WebhookURL string `yaml:"webhook_url"`

	TopCount     int    `yaml:"top_count"`
	TreeDepth    int    `yaml:"tree_depth"` // 0 = unlimited
	MinTreeBytes uint64 `yaml:"min_tree_bytes"`
}

// Load loads config from the optional MEMTREE_CONFIG file and OS environment variables
func Load() (*Config, error) {
	return LoadWith(&osEnvGetter{}, &osFileReader{})
}

// LoadWithEnv loads config using the provided EnvGetter (for DI/testing)
func LoadWithEnv(env EnvGetter) (*Config, error) {
	return LoadWith(env, &osFileReader{})
}

// LoadWith loads config using the provided EnvGetter and FileReader.
// Environment variables override values from the file.
func LoadWith(env EnvGetter, files FileReader) (*Config, error) {
	cfg := &Config{TopCount: DefaultTopCount}

	if path := env.Getenv("MEMTREE_CONFIG"); path != "" {
		data, err := files.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	overrideString(env, "BOT_TOKEN", &cfg.BotToken)
	overrideString(env, "GUILD_ID", &cfg.GuildID)
	overrideString(env, "DISCORD_WEBHOOK_URL", &cfg.WebhookURL)

	if err := overrideInt(env, "MEMTREE_TOP", &cfg.TopCount); err != nil {
		return nil, err
	}
	if err := overrideInt(env, "MEMTREE_TREE_DEPTH", &cfg.TreeDepth); err != nil {
		return nil, err
	}
	if v := env.Getenv("MEMTREE_TREE_MIN_BYTES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: MEMTREE_TREE_MIN_BYTES=%q", ErrInvalidValue, v)
		}
		cfg.MinTreeBytes = n
	}

	if cfg.TopCount <= 0 {
		return nil, fmt.Errorf("%w: top count must be positive, got %d", ErrInvalidValue, cfg.TopCount)
	}
	if cfg.TreeDepth < 0 {
		return nil, fmt.Errorf("%w: tree depth must not be negative, got %d", ErrInvalidValue, cfg.TreeDepth)
	}

	return cfg, nil
}

// ValidateBot checks the settings the Discord bot needs.
func (c *Config) ValidateBot() error {
	if c.BotToken == "" {
		return ErrMissingToken
	}
	return nil
}

// ValidateWebhook checks the settings the webhook report needs.
func (c *Config) ValidateWebhook() error {
	if c.WebhookURL == "" {
		return ErrMissingWebhook
	}
	return nil
}

func overrideString(env EnvGetter, key string, dst *string) {
	if v := env.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(env EnvGetter, key string, dst *int) error {
	v := env.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, v)
	}
	*dst = n
	return nil
}
