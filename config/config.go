// Package config persists user settings as JSON.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"dictator/log"
)

type Config struct {
	Hotkey        string  `json:"hotkey"`
	AutoStart     bool    `json:"auto_start"`
	Device        string  `json:"device,omitempty"`
	Model         string  `json:"model,omitempty"`
	Normalization float64 `json:"normalization,omitempty"`
	Beep          bool    `json:"beep,omitempty"`
}

func Default() Config {
	return Config{
		Hotkey:        "Right Option",
		Normalization: 1000,
	}
}

// DefaultPath is ~/.config/dictator/config.json on every platform.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "dictator", "config.json"), nil
}

// Load reads path over the defaults. A missing file yields the defaults; a
// corrupt one is logged and also yields the defaults.
func Load(path string) (Config, error) {
	c := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &c); err != nil {
		log.Warnf("failed to load config, using defaults: %v", err)
		return Default(), nil
	}
	if c.Hotkey == "" {
		c.Hotkey = Default().Hotkey
	}
	if c.Normalization <= 0 {
		c.Normalization = Default().Normalization
	}
	return c, nil
}

// Save writes c as indented JSON, creating the directory if needed. The file
// is replaced atomically.
func Save(path string, c Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
