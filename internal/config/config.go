/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration of branchreader.
//
// The configuration lives in a YAML file in the user scope; environment
// variables act as read-only overrides at runtime.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ReaderConfig controls the reading session.
type ReaderConfig struct {
	Script            string `yaml:"script"`              // script read when no path is given
	ReservedRows      int    `yaml:"reserved_rows"`       // terminal rows kept free for bar and prompts
	Progress          string `yaml:"progress"`            // "linear" | "unique" | "shortest-path"
	AllowDuplicateIDs bool   `yaml:"allow_duplicate_ids"` // first chapter wins on lookup
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// AppConfig is the user-editable configuration.
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	Reader        ReaderConfig  `yaml:"reader"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Reader:        ReaderConfig{Script: "lines.txt", ReservedRows: 10, Progress: "linear"},
		Logging:       LoggingConfig{Level: "warn", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath        = "BR_CONFIG"
	EnvScript            = "BR_SCRIPT"
	EnvReservedRows      = "BR_RESERVED_ROWS"
	EnvProgress          = "BR_PROGRESS"
	EnvAllowDuplicateIDs = "BR_ALLOW_DUPLICATE_IDS"
	EnvLogLevel          = "BR_LOG_LEVEL"
	EnvLogFormat         = "BR_LOG_FORMAT"
	EnvLogSource         = "BR_LOG_SOURCE"
	EnvLogFile           = "BR_LOG_FILE"
)

// ConfigPath returns the per-user config file path. BR_CONFIG replaces it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "BranchReader")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "BranchReader")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "branchreader")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "branchreader")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. A missing file is not an error; a file that fails
// to parse is reported together with the defaults.
func Load() (AppConfig, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, err
	}
	var parseErr error
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			parseErr = err
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	return cfg, parseErr
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if s := strings.TrimSpace(src.Reader.Script); s != "" {
		dst.Reader.Script = s
	}
	if src.Reader.ReservedRows > 0 {
		dst.Reader.ReservedRows = src.Reader.ReservedRows
	}
	if s := strings.TrimSpace(src.Reader.Progress); s != "" {
		dst.Reader.Progress = strings.ToLower(s)
	}
	dst.Reader.AllowDuplicateIDs = src.Reader.AllowDuplicateIDs
	if s := strings.TrimSpace(src.Logging.Level); s != "" {
		dst.Logging.Level = strings.ToLower(s)
	}
	if s := strings.TrimSpace(src.Logging.Format); s != "" {
		dst.Logging.Format = strings.ToLower(s)
	}
	dst.Logging.Source = src.Logging.Source
	if s := strings.TrimSpace(src.Logging.File); s != "" {
		dst.Logging.File = s
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvScript)); v != "" {
		cfg.Reader.Script = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvReservedRows)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Reader.ReservedRows = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvProgress)); v != "" {
		cfg.Reader.Progress = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvAllowDuplicateIDs)); v != "" {
		cfg.Reader.AllowDuplicateIDs = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	var env string
	switch key {
	case "reader.script":
		env = EnvScript
	case "reader.reserved_rows":
		env = EnvReservedRows
	case "reader.progress":
		env = EnvProgress
	case "reader.allow_duplicate_ids":
		env = EnvAllowDuplicateIDs
	case "logging.level":
		env = EnvLogLevel
	case "logging.format":
		env = EnvLogFormat
	case "logging.source":
		env = EnvLogSource
	case "logging.file":
		env = EnvLogFile
	default:
		return "", false
	}
	if os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
