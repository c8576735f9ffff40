// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice PracticeConfig `toml:"practice"`
	Race     RaceConfig     `toml:"race"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Mode     *string `toml:"mode"`
	Time     *int    `toml:"time"`
	Words    *int    `toml:"words"`
	Class    *string `toml:"class"`
	WordList *string `toml:"wordlist"`
}

// RaceConfig maps multiplayer-related settings.
type RaceConfig struct {
	Server *string `toml:"server"`
	Name   *string `toml:"name"`
	Avatar *string `toml:"avatar"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
