// Package config provides configuration management for dbx-sync.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// DefaultProfileName is the section used when no profile is requested.
var DefaultProfileName = ini.DefaultSection

// Profile is one connection section of the shared CLI config file.
//
// Config file location:
//   - $DATABRICKS_CONFIG_FILE when set
//   - otherwise ~/.databrickscfg (%USERPROFILE%\.databrickscfg on Windows)
//
// INI format:
//
//	[DEFAULT]
//	host  = https://adb-1234567890.12.azuredatabricks.net
//	token = dapi...
//
//	[staging]
//	host  = https://staging.cloud.databricks.com
//	token = dapi...
type Profile struct {
	Name  string `ini:"-"`
	Host  string `ini:"host"`
	Token string `ini:"token"`
}

// Validation errors
var (
	ErrMissingHost     = errors.New("host is required")
	ErrMissingToken    = errors.New("token is required")
	ErrProfileNotFound = errors.New("profile not found")
)

// DefaultProfilePath returns the path of the shared connection config file.
func DefaultProfilePath() (string, error) {
	if p := os.Getenv("DATABRICKS_CONFIG_FILE"); p != "" {
		return p, nil
	}

	var home string
	if runtime.GOOS == "windows" {
		home = os.Getenv("USERPROFILE")
		if home == "" {
			return "", errors.New("USERPROFILE environment variable not set")
		}
	} else {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
	}

	return filepath.Join(home, ".databrickscfg"), nil
}

// LoadProfile loads the named profile from an INI file.
// An empty name selects the DEFAULT section. A missing file yields an empty
// profile and no error so that environment variables and flags can still
// supply the connection. A named profile that is absent from an existing
// file is an error.
func LoadProfile(path, name string) (*Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}
	p := &Profile{Name: name}

	if path == "" {
		var err error
		path, err = DefaultProfilePath()
		if err != nil {
			return p, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if name != DefaultProfileName {
			return nil, fmt.Errorf("%w: %s (no config file at %s)", ErrProfileNotFound, name, path)
		}
		return p, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile file: %w", err)
	}

	section, err := iniFile.GetSection(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	p.Host = strings.TrimSpace(section.Key("host").String())
	p.Token = strings.TrimSpace(section.Key("token").String())
	return p, nil
}

// SaveProfile writes p into the INI file at path, keeping other sections.
// The token is stored in the file, so the file is restricted to the owner.
func SaveProfile(p *Profile, path string) error {
	if path == "" {
		var err error
		path, err = DefaultProfilePath()
		if err != nil {
			return fmt.Errorf("failed to determine profile path: %w", err)
		}
	}

	name := p.Name
	if name == "" {
		name = DefaultProfileName
	}

	iniFile := ini.Empty()
	if _, err := os.Stat(path); err == nil {
		iniFile, err = ini.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load existing profile file: %w", err)
		}
	}

	section, err := iniFile.NewSection(name)
	if err != nil {
		return fmt.Errorf("failed to create %s section: %w", name, err)
	}
	section.Key("host").SetValue(p.Host)
	section.Key("token").SetValue(p.Token)

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use temporary file + rename for atomicity
	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set profile permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}

// Validate checks the connection settings.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Host) == "" {
		return ErrMissingHost
	}
	if strings.TrimSpace(p.Token) == "" {
		return ErrMissingToken
	}
	return nil
}
