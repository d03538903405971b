// Package cli provides configuration management commands.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbxsync/dbx-sync/internal/api"
	"github.com/dbxsync/dbx-sync/internal/config"
	"github.com/dbxsync/dbx-sync/internal/constants"
	"github.com/dbxsync/dbx-sync/internal/workspace"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage " + constants.AppName + " configuration",
		Long: `Configuration management commands.

Commands:
  init  - Interactive setup of the connection profile and sync folder
  show  - Display current configuration
  test  - Test the workspace connection
  path  - Show configuration file paths`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

func settingsPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultSettingsFile()
}

func profilePath() (string, error) {
	if profileFile != "" {
		return profileFile, nil
	}
	return config.DefaultProfilePath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup.

The workspace URL and token are saved as a profile in ~/.databrickscfg
(or --profile-file), readable only by the owner. Sync folder settings are
saved to ~/.config/dbx-sync/config.yaml (or --config).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pPath, err := profilePath()
			if err != nil {
				return err
			}
			sPath, err := settingsPath()
			if err != nil {
				return err
			}
			return runConfigInit(cmd.InOrStdin(), cmd.OutOrStdout(), pPath, sPath)
		},
	}

	return cmd
}

func runConfigInit(in io.Reader, out io.Writer, pPath, sPath string) error {
	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "Databricks Workspace Setup")
	fmt.Fprintln(out, "==========================")
	fmt.Fprintln(out)

	name, err := readLine(reader, out, "Profile name", firstNonEmptyString(profileName, config.DefaultProfileName))
	if err != nil {
		return err
	}

	existing, _ := config.LoadProfile(pPath, name)

	var host string
	for host == "" {
		host, err = readLine(reader, out, "Workspace URL", existingHost(existing))
		if err != nil {
			return err
		}
		if host == "" {
			fmt.Fprintln(out, "  Error: workspace URL is required")
		}
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	var token string
	for token == "" {
		token, err = readSecret(reader, out, "Personal access token")
		if err != nil {
			return err
		}
		if token == "" {
			fmt.Fprintln(out, "  Error: token is required")
		}
	}

	v := config.NewSettings(sPath)
	_ = v.ReadInConfig()
	current := config.FromSettings(v)
	syncRoot, err := readLine(reader, out, "Local sync folder", current.SyncRoot)
	if err != nil {
		return err
	}
	allowAll, err := readLine(reader, out, "Accept every supported file extension? [y/N]", "")
	if err != nil {
		return err
	}

	profile := &config.Profile{Name: name, Host: strings.TrimSuffix(host, "/"), Token: token}
	if err := config.SaveProfile(profile, pPath); err != nil {
		return err
	}
	if err := config.SaveSettings(sPath, map[string]interface{}{
		"sync_root":                           config.ExpandHome(syncRoot),
		"allow_all_supported_file_extensions": strings.EqualFold(allowAll, "y") || strings.EqualFold(allowAll, "yes"),
	}); err != nil {
		return err
	}

	GetLogger().Info().Str("profile", pPath).Str("settings", sPath).Msg("Configuration saved")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "✓ Profile [%s] saved to: %s\n", name, pPath)
	fmt.Fprintf(out, "✓ Settings saved to: %s\n", sPath)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Test your configuration with: %s config test\n", constants.AppName)
	return nil
}

func existingHost(p *config.Profile) string {
	if p == nil {
		return ""
	}
	return p.Host
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the merged configuration from:
  1. Settings file (~/.config/dbx-sync/config.yaml) and connection profile (~/.databrickscfg)
  2. Environment variables (DATABRICKS_HOST, DATABRICKS_TOKEN, DBX_SYNC_*)
  3. Command-line flags (--host, --token, --profile)

Priority: flags > environment > config files > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	}

	return cmd
}

func printConfig(out io.Writer, cfg *config.Config) {
	fmt.Fprintln(out, "Current Configuration")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Connection:")
	profile := cfg.ProfileName
	if profile == "" {
		profile = config.DefaultProfileName
	}
	fmt.Fprintf(out, "  Profile: %s\n", profile)
	fmt.Fprintf(out, "  Host:    %s\n", cfg.Host)
	if cfg.Token != "" {
		// never print any part of the token
		fmt.Fprintf(out, "  Token:   <set (%d chars)>\n", len(cfg.Token))
	} else {
		fmt.Fprintln(out, "  Token:   <not set>")
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Sync Folder:")
	fmt.Fprintf(out, "  Sync Root:           %s\n", cfg.SyncRoot)
	fmt.Fprintf(out, "  Workspace Subfolder: %s\n", cfg.WorkspaceSubfolder)
	fmt.Fprintf(out, "  All Extensions:      %t\n", cfg.AllowAllSupportedFileExtensions)
	if table, err := workspace.NewExtensionTable(cfg.ExportFormats); err == nil {
		for _, lang := range workspace.Languages {
			if m, ok := table.Canonical(lang); ok {
				fmt.Fprintf(out, "  %-20s %s\n", string(lang)+":", m.Extension)
			}
		}
	} else {
		fmt.Fprintf(out, "  Export Formats:      invalid (%v)\n", err)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Behavior:")
	fmt.Fprintf(out, "  Refresh Delay:       %s\n", cfg.RefreshDelay)
	fmt.Fprintf(out, "  Double Click Window: %s\n", cfg.DoubleClickWindow)
	fmt.Fprintf(out, "  Max Concurrent:      %d\n", cfg.MaxConcurrent)
	fmt.Fprintf(out, "  Editor:              %s\n", valueOrNone(cfg.Editor))
	fmt.Fprintf(out, "  Diff Tool:           %s\n", valueOrNone(cfg.DiffTool))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Proxy Settings:")
	fmt.Fprintf(out, "  Proxy Mode: %s\n", cfg.ProxyMode)
	if cfg.ProxyHost != "" {
		fmt.Fprintf(out, "  Proxy Host: %s\n", cfg.ProxyHost)
		fmt.Fprintf(out, "  Proxy Port: %d\n", cfg.ProxyPort)
	}
	if cfg.NoProxy != "" {
		fmt.Fprintf(out, "  No Proxy:   %s\n", cfg.NoProxy)
	}
}

func valueOrNone(v string) string {
	if v == "" {
		return "<none>"
	}
	return v
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the workspace connection",
		Long: `List the workspace root with the current configuration.

Use this to verify your token and network connectivity.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := cfg.ValidateForConnection(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			fmt.Fprintf(out, "Host: %s\n", cfg.Host)
			fmt.Fprintln(out, "Testing connection...")

			client, err := api.NewClient(cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to create API client: %w", err)
			}

			ctx, cancel := context.WithTimeout(GetContext(), 30*time.Second)
			defer cancel()

			objects, err := client.List(ctx, "/")
			if err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "✗ Connection FAILED")
				return fmt.Errorf("connection test failed: %w", err)
			}

			logger.Info().Int("objects", len(objects)).Msg("Connection test successful")
			fmt.Fprintln(out, "✓ Connection SUCCESSFUL")
			fmt.Fprintf(out, "  %d objects at the workspace root\n", len(objects))
			return nil
		},
	}

	return cmd
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Show configuration file paths",
		Long:  `Display the paths of the settings file and the connection profile file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			sPath, err := settingsPath()
			if err != nil {
				return err
			}
			pPath, err := profilePath()
			if err != nil {
				return err
			}

			for _, f := range []struct{ label, path string }{
				{"Settings", sPath},
				{"Profiles", pPath},
			} {
				status := "missing"
				if info, err := os.Stat(f.path); err == nil {
					status = fmt.Sprintf("%d bytes, modified %s", info.Size(), info.ModTime().Format("2006-01-02 15:04:05"))
				}
				fmt.Fprintf(out, "%s: %s (%s)\n", f.label, f.path, status)
			}
			return nil
		},
	}

	return cmd
}
