// Package config resolves the default deployment target. Tool callers may
// supply project, region, and service explicitly; anything omitted falls back
// to flags, then environment, then an optional config file, then built-ins.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wlhee/cloud-run-mcp/pkg/logging"
)

const (
	// DefaultRegion matches the default the deploy surface has always used.
	DefaultRegion = "europe-west1"
	// DefaultService is the service name used when a caller names none.
	DefaultService = "app"
)

// Config holds the resolved deployment target defaults.
type Config struct {
	Project string `yaml:"project"`
	Region  string `yaml:"region"`
	Service string `yaml:"service"`
}

// filePath returns the config file location, honoring XDG conventions.
func filePath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, "cloud-run-mcp", "config.yaml")
}

// loadFile reads the optional YAML config file. A missing file is not an
// error; a malformed one is.
func loadFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve computes the defaults with precedence: flag > environment > config
// file > built-in. flagProject and flagRegion come from the serve command.
func Resolve(flagProject, flagRegion string) Config {
	return resolve(flagProject, flagRegion, filePath())
}

func resolve(flagProject, flagRegion, configPath string) Config {
	cfg := Config{Region: DefaultRegion, Service: DefaultService}

	if configPath != "" {
		fileCfg, err := loadFile(configPath)
		if err != nil {
			logging.Warn("Config", "ignoring config file: %v", err)
		} else {
			if fileCfg.Project != "" {
				cfg.Project = fileCfg.Project
			}
			if fileCfg.Region != "" {
				cfg.Region = fileCfg.Region
			}
			if fileCfg.Service != "" {
				cfg.Service = fileCfg.Service
			}
		}
	}

	if p := os.Getenv("GOOGLE_CLOUD_PROJECT"); p != "" {
		cfg.Project = p
	} else if p := os.Getenv("GCLOUD_PROJECT"); p != "" {
		cfg.Project = p
	}
	if r := os.Getenv("GOOGLE_CLOUD_REGION"); r != "" {
		cfg.Region = r
	}

	if flagProject != "" {
		cfg.Project = flagProject
	}
	if flagRegion != "" {
		cfg.Region = flagRegion
	}

	return cfg
}
