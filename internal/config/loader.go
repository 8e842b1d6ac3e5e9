package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CRONKEEPER_"

// ConfigPath returns the default configuration file path: ~/.cronkeeper/config.yaml.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DataDir returns the cronkeeper data directory: ~/.cronkeeper.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cronkeeper"
	}
	return filepath.Join(home, ".cronkeeper")
}

// Load reads the config file at path, applies environment overrides and
// validates the result. If path is empty, ConfigPath() is used. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	// .env is optional.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(cfg)

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	failed := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		tag := fe.Tag()
		if fe.Param() != "" {
			tag += "=" + fe.Param()
		}
		failed = append(failed, fmt.Sprintf("%s: %s", fe.Namespace(), tag))
	}
	return errors.New(strings.Join(failed, ", "))
}

func applyEnv(cfg *Config) error {
	if v, ok := lookupEnv("MANAGED_ONLY"); ok {
		b, err := cast.ToBoolE(v)
		if err != nil {
			return fmt.Errorf("%sMANAGED_ONLY: %w", envPrefix, err)
		}
		cfg.ManagedOnly = b
	}
	if v, ok := lookupEnv("TRANSPORT"); ok {
		cfg.Transport = v
	}
	if v, ok := lookupEnv("TABLE_BACKEND"); ok {
		cfg.Table.Backend = v
	}
	if v, ok := lookupEnv("TABLE_PATH"); ok {
		cfg.Table.Path = v
	}
	if v, ok := lookupEnv("HTTP_HOST"); ok {
		cfg.HTTP.Host = v
	}
	if v, ok := lookupEnv("HTTP_PORT"); ok {
		p, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%sHTTP_PORT: %w", envPrefix, err)
		}
		cfg.HTTP.Port = p
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(v)
	}
	return nil
}

func lookupEnv(key string) (string, bool) {
	v, ok := os.LookupEnv(envPrefix + key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}
