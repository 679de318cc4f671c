// Package config loads the TUI's connection settings.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// DefaultPath returns ~/.config/craftpanel/tui.yaml, or "" when the user
// config directory is unknown.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "craftpanel", "tui.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
// CRAFTPANEL_URL, CRAFTPANEL_USERNAME and CRAFTPANEL_PASSWORD override the
// file.
func Load(path string) (Config, error) {
	cfg := Config{URL: "http://127.0.0.1:3000"}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing %s: %w", path, err)
			}
		}
	}

	for key, dst := range map[string]*string{
		"CRAFTPANEL_URL":      &cfg.URL,
		"CRAFTPANEL_USERNAME": &cfg.Username,
		"CRAFTPANEL_PASSWORD": &cfg.Password,
	} {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	return cfg, nil
}
