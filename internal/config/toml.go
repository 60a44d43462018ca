// Package config provides configuration helpers and TOML parsing.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/yetype/yetype/internal/model"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Test   TestSection   `toml:"test,omitempty"`
	Sync   SyncSection   `toml:"sync,omitempty"`
	Server ServerSection `toml:"server,omitempty"`
}

// TestSection maps test settings. They are written back when the mode or a
// limit is changed from the practice screen.
type TestSection struct {
	Mode      *string `toml:"mode,omitempty"`
	TimeLimit *int    `toml:"time-limit,omitempty"`
	WordLimit *int    `toml:"word-limit,omitempty"`
	WordsFile *string `toml:"words-file,omitempty"`
	Lang      *string `toml:"lang,omitempty"`
}

// SyncSection configures uploading finished tests to a server.
type SyncSection struct {
	URL   *string `toml:"url,omitempty"`
	Token *string `toml:"token,omitempty"`
}

// ServerSection configures the serve command.
type ServerSection struct {
	Addr  *string `toml:"addr,omitempty"`
	Token *string `toml:"token,omitempty"`
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

// TestConfig applies the [test] section over the defaults and validates it.
func (c FileConfig) TestConfig() (model.TestConfig, error) {
	cfg := model.DefaultTestConfig()
	if c.Test.Mode != nil {
		mode, err := model.ParseMode(*c.Test.Mode)
		if err != nil {
			return model.TestConfig{}, fmt.Errorf("config [test]: %w", err)
		}
		cfg.Mode = mode
	}
	if c.Test.TimeLimit != nil {
		cfg.TimeLimit = *c.Test.TimeLimit
	}
	if c.Test.WordLimit != nil {
		cfg.WordLimit = *c.Test.WordLimit
	}
	if err := cfg.Validate(); err != nil {
		return model.TestConfig{}, fmt.Errorf("config [test]: %w", err)
	}
	return cfg, nil
}

// SaveTest writes cfg into the [test] section of the file at path, keeping
// every other setting.
func SaveTest(path string, cfg model.TestConfig) error {
	file, err := LoadConfig(path)
	if err != nil {
		return err
	}
	mode := string(cfg.Mode)
	timeLimit, wordLimit := cfg.TimeLimit, cfg.WordLimit
	file.Test.Mode = &mode
	file.Test.TimeLimit = &timeLimit
	file.Test.WordLimit = &wordLimit
	return writeConfig(path, file)
}

func writeConfig(path string, cfg FileConfig) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
