package domain

import (
	"fmt"
	"strings"
)

// TargetConfig holds per-project overrides loaded from .preflight.yaml in
// the target's root. Everything is optional; an absent file means defaults.
type TargetConfig struct {
	Kind         string            `yaml:"kind"          json:"kind,omitempty"`
	EntryPoint   string            `yaml:"entry_point"   json:"entry_point,omitempty"`
	BuildCommand []string          `yaml:"build_command" json:"build_command,omitempty"`
	StartCommand []string          `yaml:"start_command" json:"start_command,omitempty"`
	Port         int               `yaml:"port"          json:"port,omitempty"`
	HealthPath   string            `yaml:"health_path"   json:"health_path,omitempty"`
	ExcludePaths []string          `yaml:"exclude_paths" json:"exclude_paths,omitempty"`
	Env          map[string]string `yaml:"env"           json:"env,omitempty"`
}

// DefaultTargetConfig returns a zero-value config that changes nothing.
func DefaultTargetConfig() TargetConfig {
	return TargetConfig{}
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c TargetConfig) Validate() error {
	// 1. kind must be known or empty
	if c.Kind != "" && !IsValidKind(Kind(c.Kind)) {
		return fmt.Errorf("unknown kind %q (valid kinds: %s)", c.Kind, joinKinds())
	}

	// 2. port must be a valid TCP port
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range (must be between 0 and 65535)", c.Port)
	}

	// 3. health_path must be rooted
	if c.HealthPath != "" && !strings.HasPrefix(c.HealthPath, "/") {
		return fmt.Errorf("health_path %q must start with /", c.HealthPath)
	}

	// 4. command overrides must not contain empty argv elements
	for i, arg := range c.BuildCommand {
		if strings.TrimSpace(arg) == "" {
			return fmt.Errorf("build_command[%d] is empty", i)
		}
	}
	for i, arg := range c.StartCommand {
		if strings.TrimSpace(arg) == "" {
			return fmt.Errorf("start_command[%d] is empty", i)
		}
	}

	// 5. env keys must be non-empty
	for k := range c.Env {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("env contains an empty variable name")
		}
	}

	return nil
}

// Apply merges the overrides into a copy of the detected info. The original
// is left untouched; later stages see only the merged view.
func (c TargetConfig) Apply(info *ProjectInfo) *ProjectInfo {
	merged := *info
	if c.Kind != "" {
		merged.Kind = Kind(c.Kind)
	}
	if c.EntryPoint != "" {
		merged.EntryPoint = c.EntryPoint
	}
	if len(c.BuildCommand) > 0 {
		merged.BuildCommand = append([]string(nil), c.BuildCommand...)
	}
	if len(c.StartCommand) > 0 {
		merged.StartCommand = append([]string(nil), c.StartCommand...)
	}
	if c.Port > 0 {
		merged.DefaultPort = c.Port
	}
	if c.HealthPath != "" {
		merged.HealthPath = c.HealthPath
	}
	if len(c.ExcludePaths) > 0 {
		merged.ExcludePaths = append([]string(nil), c.ExcludePaths...)
	}
	if len(c.Env) > 0 {
		merged.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			merged.Env[k] = v
		}
	}
	return &merged
}

func joinKinds() string {
	names := make([]string, 0, len(ValidKinds))
	for _, k := range ValidKinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}
