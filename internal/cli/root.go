package cli

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rshade/pokedex/internal/config"
	"github.com/rshade/pokedex/internal/logging"
)

// annotationInteractive marks commands that take over the terminal. Their
// log output is kept off stderr.
const annotationInteractive = "pokedex/interactive"

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the pokedex CLI.
// It loads configuration, wires up logging and tracing, and registers the
// search, browse and config subcommands.
func NewRootCmd(ver string) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "pokedex",
		Short:         "Look up Pokémon from the pokedex backend",
		Long:          "pokedex: search the Pokémon backend by name or number and browse neighbouring entries",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(); err != nil {
				cmd.PrintErrf("Warning: %v\n", err)
			}
			if err := applyConfigFlags(cmd, config.GetGlobalConfig()); err != nil {
				return err
			}

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "overlay YAML file applied on top of the configuration")
	cmd.PersistentFlags().String("base-url", "", "backend base URL (overrides config and POKEDEX_BASE_URL)")
	cmd.PersistentFlags().String("token", "", "anti-forgery token sent with searches (overrides POKEDEX_CSRF_TOKEN)")
	cmd.PersistentFlags().StringP("output", "o", "", "output format: text or json")
	cmd.AddCommand(NewSearchCmd(), NewBrowseCmd(), newConfigCmd())

	return cmd
}

// applyConfigFlags layers the --config overlay and the connection flags onto cfg.
func applyConfigFlags(cmd *cobra.Command, cfg *config.Config) error {
	if overlay, _ := cmd.Flags().GetString("config"); overlay != "" {
		if err := config.MergeYAML(cfg, overlay); err != nil {
			return fmt.Errorf("applying --config: %w", err)
		}
	}
	if cmd.Flags().Changed("base-url") {
		cfg.API.BaseURL, _ = cmd.Flags().GetString("base-url")
	}
	if cmd.Flags().Changed("token") {
		cfg.API.Token, _ = cmd.Flags().GetString("token")
	}
	return nil
}

const rootCmdExample = `  # Look up a Pokémon by name
  pokedex search pikachu

  # Look up by number and list its moves
  pokedex search 25 --moves

  # Machine-readable output
  pokedex search bulbasaur --output json

  # Browse interactively, starting at #1
  pokedex browse 1

  # Point at another backend
  pokedex search eevee --base-url http://pokedex.internal:8000

  # Initialize configuration
  pokedex config init

  # Set configuration values
  pokedex config set output.default_format json`

// newConfigCmd creates the config command group with configuration subcommands.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(
		NewConfigInitCmd(), NewConfigSetCmd(), NewConfigGetCmd(),
		NewConfigListCmd(), NewConfigValidateCmd(),
	)
	return cmd
}
