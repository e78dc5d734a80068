package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/preflightci/preflight/internal/domain"
	"gopkg.in/yaml.v3"
)

const fileName = ".preflight.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .preflight.yaml from
// the target project's root.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .preflight.yaml from projectPath. A missing file means the
// project carries no overrides and yields the default config.
func (l *YAMLLoader) Load(projectPath string) (domain.TargetConfig, error) {
	data, err := os.ReadFile(filepath.Join(projectPath, fileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultTargetConfig(), nil
		}
		return domain.TargetConfig{}, err
	}

	var cfg domain.TargetConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.TargetConfig{}, fmt.Errorf("parsing %s: %w", fileName, err)
	}

	// Validate the raw input before anything merges it; catches typos early.
	if err := cfg.Validate(); err != nil {
		return domain.TargetConfig{}, fmt.Errorf("invalid %s: %w", fileName, err)
	}

	return cfg, nil
}
