package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/carscout/internal/config"
	"github.com/KaramelBytes/carscout/internal/logging"
)

var (
	cfgFile string
	debug   bool
	noColor bool
	// Overrides applied on top of the loaded config when set.
	flagHTTPTimeoutSec int
	flagProvider       string
	flagModel          string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "carscout",
	Short: "CarScout: rank used-car models by matching listings",
	Long: `CarScout loads used-car listings and segment ratings, filters them by price,
fuel, body, year, mileage, gearbox and drivetrain, and ranks models by how many
listings match. A language model can summarise any ranked model for a buyer.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.carscout/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "completion HTTP timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "completion provider: openai, openrouter, anthropic, ollama (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "completion model name (overrides config)")
}

func loadConfig() {
	if err := ensureConfig(); err != nil {
		// Non-fatal: commands that need config report it themselves.
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
	}
}

// ensureConfig loads the config once and applies CLI overrides.
func ensureConfig() error {
	if cfg == nil {
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = c
	}
	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("provider") && flagProvider != "" {
		if err := cfg.Set("provider", flagProvider); err != nil {
			return err
		}
	}
	if f.Changed("model") && flagModel != "" {
		cfg.Model = flagModel
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	if noColor {
		color.NoColor = true
	}
	return nil
}

func newLogger() zerolog.Logger {
	return logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
}
