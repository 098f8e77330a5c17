package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/rshade/pokedex/internal/config"
	"github.com/rshade/pokedex/internal/tui"
)

// ErrNotInteractive is returned by browse when stdin or stdout is not a terminal.
var ErrNotInteractive = errors.New("browse needs an interactive terminal; use 'pokedex search' instead")

// NewBrowseCmd creates the interactive lookup screen.
func NewBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [name-or-number]",
		Short: "Browse Pokémon interactively",
		Long: `Opens an interactive screen with a search box. Use the arrow keys to step to
the previous or next number once a Pokémon is shown.

Log output is discarded unless a log file is configured; with --debug it goes
to pokedex-debug.log in the configuration directory.`,
		Example: `  pokedex browse
  pokedex browse pikachu`,
		Annotations: map[string]string{annotationInteractive: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, strings.Join(args, " "))
		},
	}
	return cmd
}

func runBrowse(cmd *cobra.Command, initial string) error {
	cmd.SilenceUsage = true
	if tui.DetectOutputMode(false, false, false) != tui.OutputModeInteractive {
		return ErrNotInteractive
	}

	sess, err := newSession(config.GetGlobalConfig())
	if err != nil {
		return err
	}

	// Quitting cancels whatever lookup is still in flight.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	model := tui.NewBrowseModel(ctx, sess.agg, sess.nav, initial)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err = p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running browse screen: %w", err)
	}

	logger.Debug().Ctx(ctx).Int("last_id", sess.nav.Snapshot().CurrentID).Msg("browse closed")
	return nil
}
