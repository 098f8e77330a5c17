package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/pokedex/internal/config"
)

// secretKeys are masked by config get and config list.
//
//nolint:gochecknoglobals // Static lookup table.
var secretKeys = map[string]bool{"api.token": true}

// NewConfigGetCmd creates the config get command.
func NewConfigGetCmd() *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Print one configuration value",
		Long:  "Prints the effective value of a dotted key such as api.base_url, after environment and flag overrides.",
		Example: `  pokedex config get api.base_url
  pokedex config get api.token --reveal`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := config.GetGlobalConfig().Get(args[0])
			if err != nil {
				return err
			}
			if !reveal {
				value = maskValue(args[0], value)
			}
			cmd.Println(value)
			return nil
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print secret values unmasked")
	return cmd
}

// NewConfigSetCmd creates the config set command. It edits the config file
// only; environment overrides are not written back.
func NewConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value in the config file",
		Example: `  pokedex config set api.base_url https://pokedex.example.com
  pokedex config set api.rate_limit 5
  pokedex config set output.default_format json`,
		Args: cobra.ExactArgs(2), //nolint:mnd // key and value
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, args[0], args[1])
		},
	}
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	cfg := config.Default()
	if err := cfg.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("refusing to save invalid configuration: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	cmd.Printf("Set %s = %s\n", key, maskValue(key, value))
	return nil
}

// NewConfigListCmd creates the config list command.
func NewConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.GetGlobalConfig()
			width := 0
			for _, k := range config.Keys() {
				width = max(width, len(k))
			}
			for _, k := range config.Keys() {
				v, err := cfg.Get(k)
				if err != nil {
					return err
				}
				cmd.Printf("%-*s = %s\n", width, k, maskValue(k, v))
			}
			return nil
		},
	}
}

func maskValue(key, value string) string {
	if !secretKeys[key] || value == "" {
		return value
	}
	const visible = 4
	if len(value) <= visible {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-visible) + value[len(value)-visible:]
}
