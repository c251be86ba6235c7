package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/ardietz/confsync/internal/domain"
)

// DefaultConfigPaths returns the default paths to search for config files
func DefaultConfigPaths() []string {
	paths := []string{
		".",
		"./configs",
	}

	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "confsync"))
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "confsync"))
		paths = append(paths, filepath.Join(homeDir, ".confsync"))
	}

	return paths
}

// DefaultStatePath returns where the run database lives when
// state.path is not configured
func DefaultStatePath() string {
	if configDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(configDir, "confsync", "state.db")
	}
	return "confsync.db"
}

// Load reads and parses a configuration file.
// If path is empty, searches default locations for config.yaml.
// Credentials may come from the environment: CONFSYNC_CONFLUENCE_API_TOKEN
// and CONFSYNC_CONFLUENCE_BEARER_TOKEN override the file.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, p := range DefaultConfigPaths() {
			v.AddConfigPath(p)
		}
	}

	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil, domain.ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return finish(v)
}

// LoadFromString parses configuration from a YAML string
func LoadFromString(yamlContent string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	bindEnv(v)

	if err := v.ReadConfig(strings.NewReader(yamlContent)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	return finish(v)
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("confsync")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func finish(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrConfigInvalid, err)
	}

	cfg.Source.Dir = ExpandPath(cfg.Source.Dir)
	if cfg.State.Path != "" {
		cfg.State.Path = ExpandPath(cfg.State.Path)
	} else {
		cfg.State.Path = DefaultStatePath()
	}
	if cfg.Log.File != "" {
		cfg.Log.File = ExpandPath(cfg.Log.File)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sync.default_permission", "organization")
	v.SetDefault("sync.debounce_seconds", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
