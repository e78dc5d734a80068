// Package settings loads operator-level tool configuration. It supports XDG
// config paths and environment variables. Per-target overrides live in the
// project's own .preflight.yaml and are handled by the config adapter; this
// package only configures the tool itself.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/preflightci/preflight/internal/domain"
)

// Settings holds all tool configuration.
type Settings struct {
	Browser  BrowserSettings  `mapstructure:"browser"`
	Timeouts TimeoutsSettings `mapstructure:"timeouts"`
	Report   ReportSettings   `mapstructure:"report"`
	Watch    WatchSettings    `mapstructure:"watch"`
}

// BrowserSettings holds UI stage settings.
type BrowserSettings struct {
	ChromePath   string            `mapstructure:"chrome_path"`
	AxeScriptURL string            `mapstructure:"axe_script_url"`
	Viewports    []ViewportSetting `mapstructure:"viewports"`
}

// ViewportSetting is one named screen size for the UI stage.
type ViewportSetting struct {
	Name   string `mapstructure:"name"`
	Width  int    `mapstructure:"width"`
	Height int    `mapstructure:"height"`
}

// TimeoutsSettings overrides the per-kind stage timeouts. Zero values keep
// the kind's own defaults.
type TimeoutsSettings struct {
	Build      time.Duration `mapstructure:"build"`
	Start      time.Duration `mapstructure:"start"`
	Navigation time.Duration `mapstructure:"navigation"`
}

// ReportSettings controls where run artifacts land.
type ReportSettings struct {
	Dir string `mapstructure:"dir"`
}

// WatchSettings holds watch mode settings.
type WatchSettings struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// Viewports returns the configured viewport matrix, falling back to the
// standard mobile/tablet/desktop set.
func (s *Settings) Viewports() []domain.Viewport {
	if len(s.Browser.Viewports) == 0 {
		return domain.DefaultViewports()
	}
	out := make([]domain.Viewport, 0, len(s.Browser.Viewports))
	for _, vp := range s.Browser.Viewports {
		if vp.Name == "" || vp.Width <= 0 || vp.Height <= 0 {
			continue
		}
		out = append(out, domain.Viewport{Name: vp.Name, Width: vp.Width, Height: vp.Height})
	}
	if len(out) == 0 {
		return domain.DefaultViewports()
	}
	return out
}

// Load loads settings from the user config and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (PREFLIGHT_*)
// 2. User config (~/.config/preflight/config.yaml)
// 3. Built-in defaults
func Load() (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getUserConfigDir())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	bindEnv(v)

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}
	s.Report.Dir = os.ExpandEnv(s.Report.Dir)
	return s, nil
}

// LoadFromPath loads settings from a specific file (for testing).
func LoadFromPath(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading settings from %s: %w", path, err)
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("unmarshaling settings: %w", err)
	}
	s.Report.Dir = os.ExpandEnv(s.Report.Dir)
	return s, nil
}

// Default returns Settings with built-in defaults.
func Default() *Settings {
	return &Settings{
		Browser: BrowserSettings{
			AxeScriptURL: "https://cdn.jsdelivr.net/npm/axe-core@4.10.2/axe.min.js",
		},
		Timeouts: TimeoutsSettings{
			Navigation: 30 * time.Second,
		},
		Watch: WatchSettings{
			Debounce: 300 * time.Millisecond,
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("browser.chrome_path", "")
	v.SetDefault("browser.axe_script_url", "https://cdn.jsdelivr.net/npm/axe-core@4.10.2/axe.min.js")
	v.SetDefault("timeouts.build", "0s")
	v.SetDefault("timeouts.start", "0s")
	v.SetDefault("timeouts.navigation", "30s")
	v.SetDefault("report.dir", "")
	v.SetDefault("watch.debounce", "300ms")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("browser.chrome_path", "PREFLIGHT_CHROME_PATH")
	v.BindEnv("browser.axe_script_url", "PREFLIGHT_AXE_URL")
	v.BindEnv("report.dir", "PREFLIGHT_REPORT_DIR")
}

// getUserConfigDir returns the XDG config directory for preflight.
func getUserConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "preflight")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "preflight")
	}
	return filepath.Join(home, ".config", "preflight")
}
