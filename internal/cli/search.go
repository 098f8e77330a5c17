package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rshade/pokedex/internal/config"
	"github.com/rshade/pokedex/internal/engine"
	"github.com/rshade/pokedex/internal/tui"
)

// Exit codes for failed lookups. Any other error exits with 1.
const (
	ExitCodeNotFound   = 2
	ExitCodeValidation = 3
	ExitCodeBackend    = 4
)

// LookupExitError is returned when a search completed with a primary
// failure. The failure has already been rendered; main only needs the code.
type LookupExitError struct {
	ExitCode int
	Kind     engine.FailureKind
	Err      error
}

func (e *LookupExitError) Error() string {
	return fmt.Sprintf("lookup failed (%s)", e.Kind)
}

func (e *LookupExitError) Unwrap() error {
	return e.Err
}

// ExitCodeForKind maps a failure kind to the process exit code.
func ExitCodeForKind(kind engine.FailureKind) int {
	switch kind {
	case engine.FailureNotFound:
		return ExitCodeNotFound
	case engine.FailureValidation:
		return ExitCodeValidation
	case engine.FailureServer, engine.FailureTransport:
		return ExitCodeBackend
	default:
		return 1
	}
}

// searchFlags holds the flags of the search command.
type searchFlags struct {
	moves   bool
	noColor bool
}

// NewSearchCmd creates the one-shot lookup command.
func NewSearchCmd() *cobra.Command {
	var flags searchFlags

	cmd := &cobra.Command{
		Use:   "search <name-or-number>",
		Short: "Look up a Pokémon by name or number",
		Long: `Searches the backend for one Pokémon and prints its base data together with
its moves, stats and abilities. A failure to load moves, stats or abilities
leaves that section empty; only a failed search is an error.

Exit codes: 2 not found, 3 rejected query, 4 server or network failure.`,
		Example: `  pokedex search pikachu
  pokedex search 25 --moves
  pokedex search mr-mime -o json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), flags)
		},
	}

	cmd.Flags().BoolVar(&flags.moves, "moves", false, "list moves instead of showing a count")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colours")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, flags searchFlags) error {
	// Arguments parsed; from here on errors are not usage errors.
	cmd.SilenceUsage = true

	outFlag, _ := cmd.Flags().GetString("output")
	format := config.GetOutputFormat(outFlag)
	if format != config.OutputFormatText && format != config.OutputFormatJSON {
		return fmt.Errorf("unsupported output format %q (want %s or %s)",
			format, config.OutputFormatText, config.OutputFormatJSON)
	}

	sess, err := newSession(config.GetGlobalConfig())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	rec, err := sess.agg.FetchEntity(ctx, query, sess.nav)
	if err != nil {
		if errors.Is(err, engine.ErrEmptyQuery) {
			return errors.New("search query must not be empty")
		}
		return renderSearchFailure(cmd, format, flags, err)
	}

	logger.Debug().Ctx(ctx).
		Str("operation", "search").
		Int("id", rec.ID).
		Int("moves", len(rec.Moves)).
		Int("stats", len(rec.Stats)).
		Int("abilities", len(rec.Abilities)).
		Msg("lookup complete")

	if format == config.OutputFormatJSON {
		return tui.WriteRecordJSON(cmd.OutOrStdout(), rec)
	}

	mode := tui.DetectOutputMode(false, flags.noColor, false)
	opts := tui.RenderOptions{
		Styled:    mode != tui.OutputModePlain,
		ShowMoves: flags.moves,
		Width:     tui.TerminalWidth(),
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), tui.RenderRecord(rec, opts))
	return err
}

// renderSearchFailure prints a primary failure and converts it to a LookupExitError.
func renderSearchFailure(cmd *cobra.Command, format string, flags searchFlags, err error) error {
	f, ok := engine.AsFailure(err)
	if !ok {
		return err
	}

	logger.Debug().Ctx(cmd.Context()).
		Str("operation", "search").
		Str("kind", f.Kind.String()).
		Int("status", f.Status).
		Err(err).
		Msg("lookup failed")

	if format == config.OutputFormatJSON {
		if encErr := tui.WriteFailureJSON(cmd.OutOrStdout(), err); encErr != nil {
			return encErr
		}
	} else {
		styled := tui.DetectOutputMode(false, flags.noColor, false) != tui.OutputModePlain
		cmd.PrintErr(tui.RenderFailure(err, styled))
	}

	return &LookupExitError{ExitCode: ExitCodeForKind(f.Kind), Kind: f.Kind, Err: err}
}
