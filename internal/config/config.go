// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config represents the application configuration
type Config struct {
	LogFile               string   `json:"log_file,omitempty"`
	Debug                 bool     `json:"debug,omitempty"`
	AllowedPaths          []string `json:"allowed_paths,omitempty"`
	DeniedCommands        []string `json:"denied_commands,omitempty"`
	DefaultTimeoutSeconds int      `json:"default_timeout_seconds,omitempty"`
	SessionExpiryMinutes  int      `json:"session_expiry_minutes,omitempty"`
	CommandHistoryFile    string   `json:"command_history_file,omitempty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		DefaultTimeoutSeconds: 30,
		SessionExpiryMinutes:  5,
		CommandHistoryFile:    ".toolgate_history",
	}
}

// LoadConfig loads configuration from a JSON file, applies env overrides,
// and fills in defaults. A missing file is not an error.
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(filepath); err == nil {
		data, err := os.ReadFile(filepath)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	if val := os.Getenv("TOOLGATE_LOG_FILE"); val != "" {
		config.LogFile = val
	}
	if os.Getenv("TOOLGATE_DEBUG") != "" {
		config.Debug = true
	}

	if config.DefaultTimeoutSeconds <= 0 {
		config.DefaultTimeoutSeconds = 30
	}
	if config.SessionExpiryMinutes <= 0 {
		config.SessionExpiryMinutes = 5
	}
	if config.CommandHistoryFile == "" {
		config.CommandHistoryFile = ".toolgate_history"
	}

	return config, nil
}

// DefaultTimeout returns the command timeout as a duration.
func (c *Config) DefaultTimeout() time.Duration {
	return time.Duration(c.DefaultTimeoutSeconds) * time.Second
}

// SessionExpiry returns the session expiry window as a duration.
func (c *Config) SessionExpiry() time.Duration {
	return time.Duration(c.SessionExpiryMinutes) * time.Minute
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field   string
	Message string
}

// Validate checks the configuration for common issues and returns warnings
func (c *Config) Validate() []ValidationWarning {
	var warnings []ValidationWarning

	for _, path := range c.AllowedPaths {
		if path == "" {
			warnings = append(warnings, ValidationWarning{
				Field:   "allowed_paths",
				Message: "empty path in allowed_paths is ignored",
			})
			continue
		}
		if _, err := os.Stat(path); err != nil {
			warnings = append(warnings, ValidationWarning{
				Field:   "allowed_paths",
				Message: "path " + path + " does not exist",
			})
		}
	}

	for _, name := range c.DeniedCommands {
		if name == "" {
			warnings = append(warnings, ValidationWarning{
				Field:   "denied_commands",
				Message: "empty command name in denied_commands is ignored",
			})
		}
	}

	return warnings
}
