// Package config loads ngmon settings from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/Geun-Oh/ngmon/internal/source"
)

const (
	defaultConfigPath      = "~/.config/ngmon/config.toml"
	defaultRefreshInterval = 10 * time.Second
)

// Config holds the runtime settings. Command-line flags override any value
// set here.
type Config struct {
	RefreshInterval time.Duration
	SitesDir        string
	Files           []string
}

// Load parses the config file at path (or the default location when path is
// empty), falling back to defaults when the file is missing.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RefreshInterval: defaultRefreshInterval,
		SitesDir:        source.DefaultSitesDir,
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		RefreshInterval int      `toml:"refresh_interval"`
		SitesDir        string   `toml:"sites_dir"`
		Files           []string `toml:"files"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if raw.RefreshInterval > 0 {
		cfg.RefreshInterval = time.Duration(raw.RefreshInterval) * time.Second
	}
	if dir := strings.TrimSpace(raw.SitesDir); dir != "" {
		cfg.SitesDir = dir
	}
	cfg.Files = raw.Files

	return cfg, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultConfigPath
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path, nil
}
