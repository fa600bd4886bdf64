package logger

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level"`
	ConsoleEnabled *bool  `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
	FileCompress   bool   `yaml:"file_compress"`
}

// fileLayout is the on-disk shape: everything sits under a logging key
type fileLayout struct {
	Logging Config `yaml:"logging"`
}

// DefaultConfig returns console-only text logging at INFO
func DefaultConfig() Config {
	enabled := true
	return Config{
		Level:          "INFO",
		ConsoleEnabled: &enabled,
		ConsoleFormat:  "text",
		FilePath:       "logs/delved.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig loads logging configuration from a YAML file and applies
// environment variable overrides. A missing file yields the defaults.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return config, fmt.Errorf("read logging config: %w", err)
		default:
			var layout fileLayout
			if err := yaml.Unmarshal(data, &layout); err != nil {
				return DefaultConfig(), fmt.Errorf("parse logging config: %w", err)
			}
			config.merge(layout.Logging)
		}
	}

	config.applyEnv()
	return config, nil
}

// merge copies every field that is set in loaded over the receiver
func (c *Config) merge(loaded Config) {
	if loaded.Level != "" {
		c.Level = loaded.Level
	}
	if loaded.ConsoleEnabled != nil {
		c.ConsoleEnabled = loaded.ConsoleEnabled
	}
	if loaded.ConsoleFormat != "" {
		c.ConsoleFormat = loaded.ConsoleFormat
	}
	c.FileEnabled = loaded.FileEnabled
	c.FileCompress = loaded.FileCompress
	if loaded.FilePath != "" {
		c.FilePath = loaded.FilePath
	}
	if loaded.FileFormat != "" {
		c.FileFormat = loaded.FileFormat
	}
	if loaded.FileMaxSizeMB > 0 {
		c.FileMaxSizeMB = loaded.FileMaxSizeMB
	}
	if loaded.FileMaxBackups > 0 {
		c.FileMaxBackups = loaded.FileMaxBackups
	}
	if loaded.FileMaxAgeDays > 0 {
		c.FileMaxAgeDays = loaded.FileMaxAgeDays
	}
}

func (c *Config) applyEnv() {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Level = level
	}
	if format := os.Getenv("LOG_CONSOLE_FORMAT"); format != "" {
		c.ConsoleFormat = format
	}
	if fileEnabled := os.Getenv("LOG_FILE_ENABLED"); fileEnabled != "" {
		if enabled, err := strconv.ParseBool(fileEnabled); err == nil {
			c.FileEnabled = enabled
		}
	}
	if path := os.Getenv("LOG_FILE_PATH"); path != "" {
		c.FilePath = path
	}
}
