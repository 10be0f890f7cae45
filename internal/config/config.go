package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete tandem configuration
type Config struct {
	App     AppConfig     `mapstructure:"app" yaml:"app"`
	Tool    ToolConfig    `mapstructure:"tool" yaml:"tool"`
	Tmux    TmuxConfig    `mapstructure:"tmux" yaml:"tmux"`
	Close   CloseConfig   `mapstructure:"close" yaml:"close"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	TUI     TUIConfig     `mapstructure:"tui" yaml:"tui"`
}

// AppConfig holds process-wide identity settings
type AppConfig struct {
	// Name is the software name shown in error reports (default: "tandem")
	Name string `mapstructure:"name" yaml:"name"`
}

// ToolConfig selects the tool backend
type ToolConfig struct {
	// Backend is the tool that hosts the documents
	// Options: "tmux", "sim"
	Backend string `mapstructure:"backend" yaml:"backend"`
}

// TmuxConfig controls the tmux backend
type TmuxConfig struct {
	// Socket is the tmux -L socket name. Empty uses "tandem-{pid}".
	Socket string `mapstructure:"socket" yaml:"socket"`
	// Editor is the command run on each source (default: $EDITOR, then "vi")
	Editor string `mapstructure:"editor" yaml:"editor"`
	// Width is the width of each session's window
	Width int `mapstructure:"width" yaml:"width"`
	// Height is the height of each session's window
	Height int `mapstructure:"height" yaml:"height"`
	// MenuKey opens the command menu, without the tmux prefix (default: "F12")
	MenuKey string `mapstructure:"menu_key" yaml:"menu_key"`
	// PollMinMs is the session watcher interval right after a change
	PollMinMs int `mapstructure:"poll_min_ms" yaml:"poll_min_ms"`
	// PollMaxMs is the session watcher interval once things are quiet
	PollMaxMs int `mapstructure:"poll_max_ms" yaml:"poll_max_ms"`
}

// CloseConfig controls the shared close command
type CloseConfig struct {
	// CommandLabel is the menu label of the close command (default: "Close all")
	CommandLabel string `mapstructure:"command_label" yaml:"command_label"`
	// PreCloseKeys are sent to every document before it is closed, e.g.
	// ["esc", ":w", "enter"] to save in vi. Empty sends nothing.
	PreCloseKeys []string `mapstructure:"pre_close_keys" yaml:"pre_close_keys"`
	// PreCloseSettleMs is how long to wait after sending PreCloseKeys before
	// closing, so editors can finish saving. 0 closes right away (default: 250)
	PreCloseSettleMs int `mapstructure:"pre_close_settle_ms" yaml:"pre_close_settle_ms"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is where tandem.log is written. Empty logs to stderr.
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// TUIConfig controls the terminal status view
type TUIConfig struct {
	// Enabled shows the status view when stdout is a terminal (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}
	return &Config{
		App: AppConfig{
			Name: "tandem",
		},
		Tool: ToolConfig{
			Backend: "tmux",
		},
		Tmux: TmuxConfig{
			Socket:    "",
			Editor:    editor,
			Width:     200,
			Height:    50,
			MenuKey:   "F12",
			PollMinMs: 250,
			PollMaxMs: 2000,
		},
		Close: CloseConfig{
			CommandLabel:     "Close all",
			PreCloseKeys:     []string{},
			PreCloseSettleMs: 250,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
		TUI: TUIConfig{
			Enabled: true,
		},
	}
}

// PollMin returns the minimum watcher interval as a time.Duration
func (c *TmuxConfig) PollMin() time.Duration {
	return time.Duration(c.PollMinMs) * time.Millisecond
}

// PollMax returns the maximum watcher interval as a time.Duration
func (c *TmuxConfig) PollMax() time.Duration {
	return time.Duration(c.PollMaxMs) * time.Millisecond
}

// PreCloseSettle returns PreCloseSettleMs as a duration.
func (c *CloseConfig) PreCloseSettle() time.Duration {
	return time.Duration(c.PreCloseSettleMs) * time.Millisecond
}

// ResolveDir expands a leading "~" and returns the log directory, or ""
// when logging goes to stderr.
func (c *LoggingConfig) ResolveDir() string {
	dir := c.Dir
	if dir == "" {
		return ""
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
		}
	}
	return dir
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("app.name", defaults.App.Name)

	viper.SetDefault("tool.backend", defaults.Tool.Backend)

	viper.SetDefault("tmux.socket", defaults.Tmux.Socket)
	viper.SetDefault("tmux.editor", defaults.Tmux.Editor)
	viper.SetDefault("tmux.width", defaults.Tmux.Width)
	viper.SetDefault("tmux.height", defaults.Tmux.Height)
	viper.SetDefault("tmux.menu_key", defaults.Tmux.MenuKey)
	viper.SetDefault("tmux.poll_min_ms", defaults.Tmux.PollMinMs)
	viper.SetDefault("tmux.poll_max_ms", defaults.Tmux.PollMaxMs)

	viper.SetDefault("close.command_label", defaults.Close.CommandLabel)
	viper.SetDefault("close.pre_close_keys", defaults.Close.PreCloseKeys)
	viper.SetDefault("close.pre_close_settle_ms", defaults.Close.PreCloseSettleMs)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("tui.enabled", defaults.TUI.Enabled)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "tandem")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tandem"
	}
	return filepath.Join(home, ".config", "tandem")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
