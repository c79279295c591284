package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
)

// EnvPath names the variable that selects the config file.
const EnvPath = "MILLKEEPER_CONFIG"

// appDir is the per-user directory of the desktop releases.
const appDir = "App_Frantoio"

// DefaultPath returns the per-user config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, appDir, "config.json")
}

// Load builds the configuration: Defaults and env-default tags, then the
// file, then environment variables, then overrides. Keys absent from the
// file keep their defaults; an explicit 0 for hybrid_days or euro_per_kg is
// kept. The file is path when non-empty,
// else $MILLKEEPER_CONFIG, else DefaultPath when it exists. An explicitly
// named file must exist.
func Load(path string, overrides Overrides) (*Config, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvPath)
		explicit = path != ""
	}
	if !explicit {
		path = DefaultPath()
	}

	_, statErr := os.Stat(path)
	switch {
	case path != "" && statErr == nil:
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	case explicit:
		return nil, fmt.Errorf("config: file %s: %w", path, statErr)
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config: read env: %w", err)
		}
	}

	overrides.Apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Usage describes every environment variable.
func Usage() string {
	var cfg Config
	desc, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return err.Error()
	}
	return desc
}

var errMissingRemote = errors.New("api_key and database_url must be set")
