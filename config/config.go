package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"markestedt/emoki/platform"
)

type Config struct {
	Capture   CaptureConfig   `toml:"capture"`
	Injection InjectionConfig `toml:"injection"`
	Database  DatabaseConfig  `toml:"database"`
	History   HistoryConfig   `toml:"history"`
	Web       WebConfig       `toml:"web"`
	Tray      TrayConfig      `toml:"tray"`
	Logging   LoggingConfig   `toml:"logging"`

	path string
}

type CaptureConfig struct {
	Enabled bool   `toml:"enabled"`
	Toggle  string `toml:"toggle"`
}

type InjectionConfig struct {
	FocusDelayMs int `toml:"focus_delay_ms"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type HistoryConfig struct {
	Enabled bool `toml:"enabled"`
}

type WebConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

type TrayConfig struct {
	Enabled bool `toml:"enabled"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

// Default configuration
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Enabled: true,
			Toggle:  "ctrl+alt+e",
		},
		Injection: InjectionConfig{
			FocusDelayMs: 30,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Web: WebConfig{
			Enabled: true,
			Port:    7399,
		},
		Tray: TrayConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the application data directory, creating it if needed
func Dir() (string, error) {
	appData := os.Getenv("APPDATA")
	if appData == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return "", fmt.Errorf("failed to locate config directory: %w", err)
		}
		appData = dir
	}

	configDir := filepath.Join(appData, "emoki")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// ConfigPath returns the path to the configuration file
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the configuration from the TOML file
// If the file doesn't exist, it creates it with default values
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile loads the configuration from path, creating it with defaults
// when missing
func LoadFile(configPath string) (*Config, error) {
	// If config doesn't exist, create it with defaults
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := Default()
		cfg.path = configPath
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return cfg, nil
	}

	// Load existing config
	cfg := Default()
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.path = configPath

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return cfg, nil
}

// Path returns the file the configuration was loaded from
func (c *Config) Path() string {
	return c.path
}

// Save writes the configuration back to its TOML file
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}

	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(c)
}

// Clone returns a copy that saves to the same file
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Injection.FocusDelayMs < 0 || c.Injection.FocusDelayMs > 1000 {
		return fmt.Errorf("injection.focus_delay_ms must be between 0 and 1000, got %d", c.Injection.FocusDelayMs)
	}
	if c.Web.Port < 1 || c.Web.Port > 65535 {
		return fmt.Errorf("web.port must be between 1 and 65535, got %d", c.Web.Port)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	if c.Capture.Toggle != "" {
		kc, err := ParseHotkey(c.Capture.Toggle)
		if err != nil {
			return fmt.Errorf("capture.toggle: %w", err)
		}
		if _, err := platform.VKCode(kc.Key); err != nil {
			return fmt.Errorf("capture.toggle: %w", err)
		}
	}
	return nil
}

// FocusDelay returns the injection pacing delay
func (c *Config) FocusDelay() time.Duration {
	return time.Duration(c.Injection.FocusDelayMs) * time.Millisecond
}

// ParseLevel converts a level name into a slog level
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level: %s", level)
}

// KeyCombo represents a parsed keyboard combination
type KeyCombo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool
	Key   string
}

// ParseHotkey parses a hotkey combo string like "ctrl+alt+e" or "ctrl+win"
func ParseHotkey(combo string) (KeyCombo, error) {
	var kc KeyCombo
	if strings.TrimSpace(combo) == "" {
		return kc, fmt.Errorf("empty hotkey combo")
	}
	parts := strings.Split(strings.ToLower(combo), "+")

	for i, part := range parts {
		part = strings.TrimSpace(part)

		// Check if this part is a modifier
		isModifier := false
		switch part {
		case "ctrl", "control":
			kc.Ctrl = true
			isModifier = true
		case "shift":
			kc.Shift = true
			isModifier = true
		case "alt":
			kc.Alt = true
			isModifier = true
		case "win", "windows":
			kc.Win = true
			isModifier = true
		}

		// If it's not a modifier and it's the last part, it's the key
		if !isModifier {
			if i == len(parts)-1 {
				kc.Key = part
			} else {
				return kc, fmt.Errorf("unknown modifier: %s", part)
			}
		}
	}

	// Key is optional - if empty, it's a modifier-only combo
	// But we need at least one modifier
	if !kc.Ctrl && !kc.Shift && !kc.Alt && !kc.Win {
		return kc, fmt.Errorf("no modifiers or key specified in combo")
	}

	return kc, nil
}
