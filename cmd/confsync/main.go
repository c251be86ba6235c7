// Command confsync mirrors a local directory of documents into a
// Confluence space page hierarchy.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ardietz/confsync/internal/config"
	"github.com/ardietz/confsync/internal/domain"
	"github.com/ardietz/confsync/internal/logger"
)

var (
	configPath string
	verbose    bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "confsync",
	Short: "Sync a local document tree into a Confluence space",
	Long: `confsync mirrors a directory of .docx documents into a Confluence
space: every directory becomes a folder page, every document becomes a
content page with the original file attached, and folder pages link to
their children. Filename tags like "Report [RES].docx" control page
restrictions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Version runs without any configuration
		if cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			if errors.Is(err, domain.ErrConfigNotFound) {
				return fmt.Errorf("no config file found; create config.yaml or pass --config")
			}
			return err
		}

		level := logger.ParseLevel(cfg.Log.Level)
		if verbose {
			level = logger.LevelDebug
		}

		logCfg := logger.Config{
			Level:  level,
			Format: logger.ParseFormat(cfg.Log.Format),
		}
		if cfg.Log.File != "" {
			logCfg.File = logger.FileConfig{
				Enabled:    true,
				Path:       cfg.Log.File,
				MaxSizeMB:  10,
				MaxAgeDays: 30,
				MaxBackups: 5,
				Compress:   true,
			}
		}
		if err := logger.Init(logCfg); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Shutdown()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(cleanupCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
