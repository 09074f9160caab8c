// Package config loads the presence command configuration from YAML or JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Config is the decoded configuration file.
type Config struct {
	LogLevel          string         `mapstructure:"log_level"`
	Observe           bool           `mapstructure:"observe"`
	TransitionTimeout time.Duration  `mapstructure:"transition_timeout"`
	Animator          AnimatorConfig `mapstructure:"animator"`
	Redis             RedisConfig    `mapstructure:"redis"`
	HTTP              HTTPConfig     `mapstructure:"http"`
}

// AnimatorConfig drives the timed animator.
type AnimatorConfig struct {
	Duration time.Duration `mapstructure:"duration"`
	Stagger  time.Duration `mapstructure:"stagger"`
}

// RedisConfig enables event publishing when Addr is set.
type RedisConfig struct {
	Addr    string `mapstructure:"addr"`
	Channel string `mapstructure:"channel"`
}

// HTTPConfig configures the inspection server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel: "info",
		Observe:  true,
		Animator: AnimatorConfig{
			Duration: 200 * time.Millisecond,
			Stagger:  50 * time.Millisecond,
		},
		Redis: RedisConfig{Channel: "presence:events"},
		HTTP:  HTTPConfig{Addr: ":8080"},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := Parse(data, filepath.Ext(path), &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data (JSON when ext is ".json", YAML otherwise) into cfg.
// Keys absent from data keep their current value in cfg.
func Parse(data []byte, ext string, cfg *Config) error {
	raw := map[string]any{}
	if strings.EqualFold(ext, ".json") {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse json: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("failed to parse yaml: %w", err)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return cfg.Validate()
}

// Validate rejects values no component can work with.
func (c Config) Validate() error {
	switch {
	case c.Animator.Duration < 0:
		return fmt.Errorf("animator.duration must not be negative")
	case c.Animator.Stagger < 0:
		return fmt.Errorf("animator.stagger must not be negative")
	case c.TransitionTimeout < 0:
		return fmt.Errorf("transition_timeout must not be negative")
	case c.Redis.Addr != "" && c.Redis.Channel == "":
		return fmt.Errorf("redis.channel is required when redis.addr is set")
	}
	return nil
}
