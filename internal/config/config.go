// Package config defines the configuration for confsync and its loader.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardietz/confsync/internal/domain"
)

// Config represents the complete configuration for confsync
type Config struct {
	// Confluence holds the target site and credentials
	Confluence ConfluenceConfig `mapstructure:"confluence"`

	// Source describes the local directory to sync
	Source SourceConfig `mapstructure:"source"`

	// Sync holds behavioral options for the sync engine
	Sync SyncConfig `mapstructure:"sync"`

	// Log configures logging output
	Log LogConfig `mapstructure:"log"`

	// State configures the local run database
	State StateConfig `mapstructure:"state"`
}

// ConfluenceConfig identifies the target site and how to authenticate
type ConfluenceConfig struct {
	// BaseURL is the site root, e.g. https://example.atlassian.net
	BaseURL string `mapstructure:"base_url"`

	// Username and APIToken select basic auth
	Username string `mapstructure:"username"`
	APIToken string `mapstructure:"api_token"`

	// BearerToken selects token auth instead of basic auth
	BearerToken string `mapstructure:"bearer_token"`

	// SpaceKey names the space to sync into
	SpaceKey string `mapstructure:"space_key"`

	// RootPageID, when set, syncs under this existing page instead of
	// creating a top-level container for the source directory
	RootPageID string `mapstructure:"root_page_id"`

	// RestrictedGroup is the group granted access on restricted pages
	RestrictedGroup string `mapstructure:"restricted_group"`
}

// SourceConfig describes what to sync
type SourceConfig struct {
	// Dir is the local directory tree to mirror
	Dir string `mapstructure:"dir"`
}

// SyncConfig holds engine behavior options
type SyncConfig struct {
	// DefaultPermission applies to documents without a recognized tag.
	// One of "internal", "organization", "restricted".
	DefaultPermission string `mapstructure:"default_permission"`

	// DebounceSeconds is the quiet period for watch mode
	DebounceSeconds int `mapstructure:"debounce_seconds"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `mapstructure:"level"`

	// Format is text or json
	Format string `mapstructure:"format"`

	// File, when set, also writes logs to a rotated file
	File string `mapstructure:"file"`
}

// StateConfig configures the local sqlite database
type StateConfig struct {
	// Path to the database file; defaults under the user config dir
	Path string `mapstructure:"path"`
}

// Validate checks if the configuration is complete and consistent
func (c *Config) Validate() error {
	if c.Confluence.BaseURL == "" {
		return fmt.Errorf("%w: confluence.base_url is required", domain.ErrConfigInvalid)
	}
	u, err := url.Parse(c.Confluence.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: confluence.base_url is not a valid URL: %s",
			domain.ErrConfigInvalid, c.Confluence.BaseURL)
	}

	if c.Confluence.SpaceKey == "" {
		return fmt.Errorf("%w: confluence.space_key is required", domain.ErrConfigInvalid)
	}

	hasBasic := c.Confluence.Username != "" && c.Confluence.APIToken != ""
	hasBearer := c.Confluence.BearerToken != ""
	if !hasBasic && !hasBearer {
		return fmt.Errorf("%w: either confluence.username with api_token, or bearer_token, is required",
			domain.ErrConfigInvalid)
	}
	if hasBasic && hasBearer {
		return fmt.Errorf("%w: basic auth and bearer_token are mutually exclusive", domain.ErrConfigInvalid)
	}

	if c.Source.Dir == "" {
		return fmt.Errorf("%w: source.dir is required", domain.ErrConfigInvalid)
	}

	switch c.Sync.DefaultPermission {
	case "", "internal", "organization", "restricted":
	default:
		return fmt.Errorf("%w: invalid sync.default_permission: %s",
			domain.ErrConfigInvalid, c.Sync.DefaultPermission)
	}

	if c.Sync.DebounceSeconds < 0 {
		return fmt.Errorf("%w: sync.debounce_seconds cannot be negative", domain.ErrConfigInvalid)
	}

	return nil
}

// DefaultPermission resolves the configured fallback permission
func (c *Config) DefaultPermission() domain.Permission {
	switch strings.ToLower(c.Sync.DefaultPermission) {
	case "internal":
		return domain.PermissionInternal
	case "restricted":
		return domain.PermissionRestricted
	default:
		return domain.PermissionOrganization
	}
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err == nil {
			if len(path) > 1 && (path[1] == '/' || path[1] == filepath.Separator) {
				path = filepath.Join(home, path[2:])
			} else if len(path) == 1 {
				path = home
			}
		}
	}
	path = os.ExpandEnv(path)
	return filepath.Clean(path)
}
