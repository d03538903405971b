package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/dbxsync/dbx-sync/internal/constants"
)

// Config is the merged runtime configuration: connection profile, sync
// settings and HTTP proxy settings.
type Config struct {
	// Connection
	ProfileName string
	Host        string
	Token       string

	// Local sync folder
	SyncRoot                        string
	WorkspaceSubfolder              string
	AllowAllSupportedFileExtensions bool
	ExportFormats                   map[string]string // language -> canonical extension, e.g. "python": ".ipynb"

	// Tree behavior
	RefreshDelay      time.Duration
	DoubleClickWindow time.Duration

	// Host integration
	Editor   string
	DiffTool string // command template, {local} and {remote} are substituted

	MaxConcurrent int

	// Proxy settings
	ProxyMode     string // "no-proxy", "system", "basic", "ntlm"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool
}

// LoadOptions carries the explicit overrides coming from CLI flags.
// Priority: flags > environment > config files > defaults.
type LoadOptions struct {
	SettingsFile string
	ProfileFile  string
	ProfileName  string
	Host         string
	Token        string
}

// DefaultSettingsDir returns ~/.config/dbx-sync.
func DefaultSettingsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", constants.AppName), nil
}

// DefaultSettingsFile returns ~/.config/dbx-sync/config.yaml.
func DefaultSettingsFile() (string, error) {
	dir, err := DefaultSettingsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// SaveSettings writes values into the YAML settings file at path, keeping
// the keys already stored there.
func SaveSettings(path string, values map[string]interface{}) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}
	}
	for k, val := range values {
		v.Set(k, val)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// NewSettings returns a viper instance with defaults, env binding and the
// settings file location configured. The file itself is not read.
func NewSettings(settingsFile string) *viper.Viper {
	v := viper.New()

	if settingsFile != "" {
		v.SetConfigFile(settingsFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := DefaultSettingsDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	home, _ := os.UserHomeDir()
	v.SetDefault("sync_root", filepath.Join(home, constants.DefaultSyncRootName))
	v.SetDefault("workspace_subfolder", constants.DefaultWorkspaceSubfolder)
	v.SetDefault("allow_all_supported_file_extensions", false)
	v.SetDefault("export_formats", map[string]string{})
	v.SetDefault("refresh_delay", constants.DefaultRefreshDelay)
	v.SetDefault("double_click_window", constants.DefaultDoubleClickWindow)
	v.SetDefault("editor", os.Getenv("EDITOR"))
	v.SetDefault("diff_tool", "")
	v.SetDefault("max_concurrent", constants.DefaultMaxConcurrent)
	v.SetDefault("proxy_mode", "no-proxy")
	v.SetDefault("proxy_port", 0)
	v.SetDefault("proxy_warmup", false)

	return v
}

// Load reads the settings file and the connection profile and merges them
// with environment variables and explicit overrides.
func Load(opts LoadOptions) (*Config, error) {
	v := NewSettings(opts.SettingsFile)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.SettingsFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	cfg := FromSettings(v)

	profileName := firstNonEmpty(opts.ProfileName, os.Getenv("DATABRICKS_CONFIG_PROFILE"))
	profile, err := LoadProfile(opts.ProfileFile, profileName)
	if err != nil {
		return nil, err
	}

	cfg.ProfileName = profile.Name
	cfg.Host = strings.TrimSuffix(firstNonEmpty(opts.Host, os.Getenv("DATABRICKS_HOST"), profile.Host), "/")
	cfg.Token = firstNonEmpty(opts.Token, os.Getenv("DATABRICKS_TOKEN"), profile.Token)

	if cfg.Host != "" && !strings.Contains(cfg.Host, "://") {
		cfg.Host = "https://" + cfg.Host
	}

	return cfg, nil
}

// FromSettings builds a Config from an already populated viper instance.
// Connection fields are left empty.
func FromSettings(v *viper.Viper) *Config {
	formats := make(map[string]string)
	for lang, ext := range v.GetStringMapString("export_formats") {
		ext = strings.TrimSpace(ext)
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		formats[strings.ToLower(lang)] = ext
	}

	return &Config{
		SyncRoot:                        ExpandHome(v.GetString("sync_root")),
		WorkspaceSubfolder:              v.GetString("workspace_subfolder"),
		AllowAllSupportedFileExtensions: v.GetBool("allow_all_supported_file_extensions"),
		ExportFormats:                   formats,
		RefreshDelay:                    v.GetDuration("refresh_delay"),
		DoubleClickWindow:               v.GetDuration("double_click_window"),
		Editor:                          v.GetString("editor"),
		DiffTool:                        v.GetString("diff_tool"),
		MaxConcurrent:                   v.GetInt("max_concurrent"),
		ProxyMode:                       v.GetString("proxy_mode"),
		ProxyHost:                       v.GetString("proxy_host"),
		ProxyPort:                       v.GetInt("proxy_port"),
		ProxyUser:                       v.GetString("proxy_user"),
		ProxyPassword:                   v.GetString("proxy_password"),
		NoProxy:                         v.GetString("no_proxy"),
		ProxyWarmup:                     v.GetBool("proxy_warmup"),
	}
}

// ValidateForConnection checks only the connection settings.
func (c *Config) ValidateForConnection() error {
	p := Profile{Host: c.Host, Token: c.Token}
	return p.Validate()
}

// Validate checks the settings that the sync layer depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SyncRoot) == "" {
		return errors.New("sync_root is required")
	}
	if c.MaxConcurrent < constants.MinMaxConcurrent || c.MaxConcurrent > constants.MaxMaxConcurrent {
		return fmt.Errorf("max_concurrent must be between %d and %d, got %d",
			constants.MinMaxConcurrent, constants.MaxMaxConcurrent, c.MaxConcurrent)
	}
	if c.RefreshDelay < 0 || c.DoubleClickWindow < 0 {
		return errors.New("refresh_delay and double_click_window must not be negative")
	}
	return nil
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
