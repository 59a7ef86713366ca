// Copyright 2020-2022 The OS-NVR Authors.
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation; version 2.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"flvextract/pkg/log"

	"gopkg.in/yaml.v3"
)

// Config extraction configuration.
type Config struct {
	// Directory the outputs are written to, empty for
	// the directory of each input.
	OutputDir string `yaml:"outputDir"`

	// Replace existing outputs.
	Overwrite bool `yaml:"overwrite"`

	// Optional bbolt database the logs are saved to.
	LogDB string `yaml:"logDB"`

	// error, warning, info or debug.
	LogLevel string `yaml:"logLevel"`
}

// Errors.
var (
	ErrPathNotAbsolute = errors.New("path is not absolute")
	ErrNotDir          = errors.New("not a directory")
)

const defaultLogLevel = "info"

// NewConfig parses config yaml. An empty yaml gives the default config.
func NewConfig(configYAML []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(configYAML, &c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ReadConfig reads and parses the config file at path.
func ReadConfig(path string) (*Config, error) {
	configYAML, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	return NewConfig(configYAML)
}

// Validate fills in defaults and checks the values.
func (c *Config) Validate() error {
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("logLevel: %w", err)
	}

	if c.OutputDir != "" {
		if !filepath.IsAbs(c.OutputDir) {
			return fmt.Errorf("outputDir '%v': %w", c.OutputDir, ErrPathNotAbsolute)
		}
		if !dirExist(c.OutputDir) {
			return fmt.Errorf("outputDir '%v': %w", c.OutputDir, ErrNotDir)
		}
	}
	if c.LogDB != "" && !filepath.IsAbs(c.LogDB) {
		return fmt.Errorf("logDB '%v': %w", c.LogDB, ErrPathNotAbsolute)
	}
	return nil
}

// Level returns the parsed log level.
func (c Config) Level() log.Level {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelInfo
	}
	return level
}

func dirExist(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
