/*
Package config loads the application configuration.

PURPOSE:
  One explicit configuration value threaded through the CLI, API, and
  engine. Nothing in the system reads environment state or globals at run
  time; a run is fully determined by its inputs and this struct.

FILE FORMAT (YAML):

  server:
    port: 8080
    allowed_origins: ["http://localhost:5173"]
  database:
    path: ./data/accruals.db
  report:
    output_dir: ./out
    output_name: Accruals Report
    sheet_name: Accruals
  accrual_year: 2025
  logging:
    level: info

Absent fields keep their defaults; an absent file yields pure defaults.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Database struct {
	Path string `yaml:"path"`
}

type Report struct {
	OutputDir  string `yaml:"output_dir"`
	OutputName string `yaml:"output_name"`
	SheetName  string `yaml:"sheet_name"`
}

type Logging struct {
	Level string `yaml:"level"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Database Database `yaml:"database"`
	Report   Report   `yaml:"report"`
	// AccrualYear selects the canonical accrual month columns every report
	// must carry, even when no activity touches them.
	AccrualYear int     `yaml:"accrual_year"`
	Logging     Logging `yaml:"logging"`
}

// Default returns the standing configuration for the current calendar year.
func Default() Config {
	return Config{
		Server: Server{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		},
		Database:    Database{Path: "./data/accruals.db"},
		Report:      Report{OutputDir: ".", OutputName: "Accruals Report", SheetName: "Accruals"},
		AccrualYear: time.Now().Year(),
		Logging:     Logging{Level: "info"},
	}
}

// Load overlays the YAML file at path onto the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.AccrualYear < 2000 || c.AccrualYear > 2200 {
		return fmt.Errorf("invalid accrual year %d", c.AccrualYear)
	}
	if c.Report.OutputName == "" {
		return fmt.Errorf("report output name must not be empty")
	}
	return nil
}
