package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AppName names the config directory and default files
const AppName = "lazytdm"

// Config holds all application configuration
type Config struct {
	General GeneralConfig `mapstructure:"general"`
	Gateway GatewayConfig `mapstructure:"gateway"`
	Grid    GridConfig    `mapstructure:"grid"`
	UI      UIConfig      `mapstructure:"ui"`
	Data    DataConfig    `mapstructure:"data"`
	State   StateConfig   `mapstructure:"state"`
	History HistoryConfig `mapstructure:"history"`
	Server  ServerConfig  `mapstructure:"server"`
}

type GeneralConfig struct {
	ConfirmDestructiveOps bool   `mapstructure:"confirm_destructive_ops"`
	LogFile               string `mapstructure:"log_file"`
	LogLevel              string `mapstructure:"log_level"`
}

// Level parses LogLevel, falling back to info for unknown names
func (g GeneralConfig) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

type GatewayConfig struct {
	BaseURL   string `mapstructure:"base_url"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
}

type GridConfig struct {
	ImmutableColumns     []string `mapstructure:"immutable_columns"`
	SaveConcurrency      int      `mapstructure:"save_concurrency"`
	MaxCellDisplayLength int      `mapstructure:"max_cell_display_length"`
}

type UIConfig struct {
	Theme           string `mapstructure:"theme"`
	MouseEnabled    bool   `mapstructure:"mouse_enabled"`
	PanelWidthRatio int    `mapstructure:"panel_width_ratio"`
	ToastDurationMS int    `mapstructure:"toast_duration_ms"`
}

type DataConfig struct {
	DownloadDir string `mapstructure:"download_dir"`
}

type StateConfig struct {
	Path string `mapstructure:"path"`
}

type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	DatabaseURL string `mapstructure:"database_url"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	dir := configDir()
	return &Config{
		General: GeneralConfig{
			ConfirmDestructiveOps: true,
			LogFile:               filepath.Join(dir, AppName+".log"),
			LogLevel:              "info",
		},
		Gateway: GatewayConfig{
			BaseURL:   "http://localhost:5000",
			TimeoutMS: 0,
		},
		Grid: GridConfig{
			ImmutableColumns:     []string{"data_id", "ROW_ID"},
			SaveConcurrency:      1,
			MaxCellDisplayLength: 40,
		},
		UI: UIConfig{
			Theme:           "default",
			MouseEnabled:    true,
			PanelWidthRatio: 25,
			ToastDurationMS: 3000,
		},
		Data: DataConfig{
			DownloadDir: downloadDir(),
		},
		State: StateConfig{
			Path: filepath.Join(dir, "state.yaml"),
		},
		History: HistoryConfig{
			Enabled:    true,
			Path:       filepath.Join(dir, "history.db"),
			MaxEntries: 1000,
		},
		Server: ServerConfig{
			Addr:        ":5000",
			DatabaseURL: "",
		},
	}
}

// flagKeys maps command-line flags to config keys
var flagKeys = map[string]string{
	"gateway":      "gateway.base_url",
	"download-dir": "data.download_dir",
	"theme":        "ui.theme",
	"log-file":     "general.log_file",
	"addr":         "server.addr",
	"database-url": "server.database_url",
}

// ClientFlags registers the flags of the terminal client
func ClientFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to config file")
	fs.String("gateway", "", "base URL of the data gateway")
	fs.String("download-dir", "", "directory for downloaded tables")
	fs.String("theme", "", "color theme (default, catppuccin-mocha)")
	fs.String("log-file", "", "log file path")
}

// ServerFlags registers the flags of the reference gateway server
func ServerFlags(fs *pflag.FlagSet) {
	fs.StringP("config", "c", "", "path to config file")
	fs.String("addr", "", "listen address")
	fs.String("database-url", "", "PostgreSQL connection string; in-memory store when empty")
}

// Loader reads configuration from defaults, config files and flags
type Loader struct {
	v *viper.Viper

	mu      sync.Mutex
	current *Config
}

// NewLoader prepares viper and reads the config file. Flags may be nil.
func NewLoader(flags *pflag.FlagSet) (*Loader, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	explicit := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		// Add config paths in priority order
		// 1. User config directory
		v.AddConfigPath(configDir())

		// 2. Current directory
		v.AddConfigPath(".")

		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	return &Loader{v: v}, nil
}

// Load unmarshals the current configuration
func (l *Loader) Load() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	// An empty flag value must not hide the default
	if cfg.Gateway.BaseURL == "" {
		cfg.Gateway.BaseURL = GetDefaults().Gateway.BaseURL
	}
	if cfg.Data.DownloadDir == "" {
		cfg.Data.DownloadDir = downloadDir()
	}
	if cfg.UI.Theme == "" {
		cfg.UI.Theme = "default"
	}
	if cfg.General.LogFile == "" {
		cfg.General.LogFile = GetDefaults().General.LogFile
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":5000"
	}

	l.mu.Lock()
	l.current = &cfg
	l.mu.Unlock()
	return &cfg, nil
}

// ConfigFile returns the config file in use, or "" when running on defaults
func (l *Loader) ConfigFile() string {
	return l.v.ConfigFileUsed()
}

// Watch reloads the configuration whenever the config file changes
func (l *Loader) Watch(onChange func(*Config, error)) {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := l.Load()
		onChange(cfg, err)
	})
	l.v.WatchConfig()
}

// Load loads configuration from files and flags
func Load(flags *pflag.FlagSet) (*Config, error) {
	l, err := NewLoader(flags)
	if err != nil {
		return nil, err
	}
	return l.Load()
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

func setDefaults(v *viper.Viper) {
	d := GetDefaults()
	v.SetDefault("general.confirm_destructive_ops", d.General.ConfirmDestructiveOps)
	v.SetDefault("general.log_file", d.General.LogFile)
	v.SetDefault("general.log_level", d.General.LogLevel)
	v.SetDefault("gateway.base_url", d.Gateway.BaseURL)
	v.SetDefault("gateway.timeout_ms", d.Gateway.TimeoutMS)
	v.SetDefault("grid.immutable_columns", d.Grid.ImmutableColumns)
	v.SetDefault("grid.save_concurrency", d.Grid.SaveConcurrency)
	v.SetDefault("grid.max_cell_display_length", d.Grid.MaxCellDisplayLength)
	v.SetDefault("ui.theme", d.UI.Theme)
	v.SetDefault("ui.mouse_enabled", d.UI.MouseEnabled)
	v.SetDefault("ui.panel_width_ratio", d.UI.PanelWidthRatio)
	v.SetDefault("ui.toast_duration_ms", d.UI.ToastDurationMS)
	v.SetDefault("data.download_dir", d.Data.DownloadDir)
	v.SetDefault("state.path", d.State.Path)
	v.SetDefault("history.enabled", d.History.Enabled)
	v.SetDefault("history.path", d.History.Path)
	v.SetDefault("history.max_entries", d.History.MaxEntries)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.database_url", d.Server.DatabaseURL)
}

func configDir() string {
	if dir, err := GetConfigPath(); err == nil {
		return dir
	}
	return "."
}

func downloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}
