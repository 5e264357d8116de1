package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aevon-lab/envelope/internal/validation"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix selects environment overrides: ENVELOPE_HEADER__VALIDATOR__CLASS
// overrides header.validator.class.
const EnvPrefix = "ENVELOPE_"

// Config represents the top-level configuration.
type Config struct {
	Header     HeaderConfig     `koanf:"header"`
	Validation ValidationConfig `koanf:"validation"`
	Log        LogConfig        `koanf:"log"`
	CLI        CLIConfig        `koanf:"cli"`
}

type HeaderConfig struct {
	Validator ValidatorConfig `koanf:"validator"`
}

// ValidatorConfig selects the validator plugin. An empty Class selects the
// default validator.
type ValidatorConfig struct {
	Class string `koanf:"class"`
}

type ValidationConfig struct {
	RulesDir     string `koanf:"rules_dir"`
	RequireRules bool   `koanf:"require_rules"`
}

type LogConfig struct {
	Level string `koanf:"level"` // debug | info | warn | error
}

type CLIConfig struct {
	Workers int `koanf:"workers"`
}

func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level %q (must be debug, info, warn or error)", c.Log.Level)
	}
	if strings.TrimSpace(c.Validation.RulesDir) == "" && c.Validation.RequireRules {
		return fmt.Errorf("validation.rules_dir is required when validation.require_rules is set")
	}
	if c.CLI.Workers <= 0 {
		return fmt.Errorf("cli.workers must be > 0")
	}
	return nil
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		validation.ClassKey:        "",
		"validation.rules_dir":     "./rules",
		"validation.require_rules": false,
		"log.level":                "info",
		"cli.workers":              4,
	}
}

// Live holds the process-wide configuration and serves consistent reads
// while it is being overridden or reloaded.
type Live struct {
	mu   sync.RWMutex
	path string
	k    *koanf.Koanf
}

// NewLive loads defaults, the optional file at path and environment
// overrides.
func NewLive(path string) (*Live, error) {
	k, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Live{path: path, k: k}, nil
}

func load(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	for key, value := range defaults() {
		k.Set(key, value)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	return k, nil
}

// ValidatorClass returns the current header.validator.class value.
func (l *Live) ValidatorClass() string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.k.String(validation.ClassKey)
}

// Set overrides a single key until the next Reload.
func (l *Live) Set(key string, value interface{}) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.k.Set(key, value)
}

// Reload rereads the file and environment, dropping overrides made by Set.
func (l *Live) Reload() error {
	k, err := load(l.path)
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.k = k
	l.mu.Unlock()
	return nil
}

// Config unmarshals and validates a snapshot of the current values.
func (l *Live) Config() (*Config, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var cfg Config
	if err := l.k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load parses config from file + env and validates it.
func Load(path string) (*Config, error) {
	live, err := NewLive(path)
	if err != nil {
		return nil, err
	}
	return live.Config()
}
