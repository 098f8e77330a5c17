package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/pokedex/internal/config"
)

// NewConfigValidateCmd creates the config validate command for validating configuration.
func NewConfigValidateCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long: `Validates the effective configuration: the config file, POKEDEX_* environment
overrides and command-line flags.

This includes:
- Backend URL scheme and host
- Positive request timeout
- Rate limit and burst bounds
- Output format and log level names`,
		Example: `  # Validate current configuration
  pokedex config validate

  # Validate and show detailed information
  pokedex config validate --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigValidate(cmd, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show detailed validation information")

	return cmd
}

// runConfigValidate executes the configuration validation logic.
func runConfigValidate(cmd *cobra.Command, verbose bool) error {
	cfg := config.GetGlobalConfig()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	cmd.Printf("✅ Configuration is valid\n")

	if verbose {
		printVerboseDetails(cmd, cfg)
	}

	return nil
}

// printVerboseDetails prints detailed configuration information.
func printVerboseDetails(cmd *cobra.Command, cfg *config.Config) {
	cmd.Println()
	cmd.Println("Configuration details:")
	cmd.Printf("  Config file: %s\n", cfg.ConfigPath())
	cmd.Printf("  Base URL: %s\n", cfg.API.BaseURL)
	cmd.Printf("  Token: %s\n", tokenSourceLabel(cfg))
	cmd.Printf("  Timeout: %s\n", cfg.API.Timeout)
	if cfg.API.RateLimit > 0 {
		cmd.Printf("  Rate limit: %g req/s (burst %d)\n", cfg.API.RateLimit, cfg.API.Burst)
	} else {
		cmd.Println("  Rate limit: unlimited")
	}
	cmd.Printf("  Output format: %s\n", cfg.Output.DefaultFormat)
	cmd.Printf("  Logging level: %s\n", cfg.Logging.Level)
	cmd.Printf("  Log file: %s\n", cfg.Logging.File)
}

func tokenSourceLabel(cfg *config.Config) string {
	switch {
	case cfg.API.Token != "":
		return "static (configured)"
	case cfg.API.TokenFromPage:
		return "read from backend home page"
	default:
		return "none"
	}
}
