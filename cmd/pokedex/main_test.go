package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pokedex/internal/cli"
	"github.com/rshade/pokedex/internal/engine"
	"github.com/rshade/pokedex/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		require.NotNil(t, root)
		assert.Equal(t, "pokedex", root.Use)
		assert.True(t, root.SilenceErrors, "main prints errors itself")
	})
}

func TestExtractLookupExitCode(t *testing.T) {
	notFound := engine.NewNotFoundFailure(404, "Pokémon not found")
	tests := []struct {
		name         string
		err          error
		wantExitCode int
		wantIsLookup bool
	}{
		{
			name:         "not found",
			err:          &cli.LookupExitError{ExitCode: cli.ExitCodeNotFound, Kind: engine.FailureNotFound, Err: notFound},
			wantExitCode: 2,
			wantIsLookup: true,
		},
		{
			name:         "backend",
			err:          &cli.LookupExitError{ExitCode: cli.ExitCodeBackend, Kind: engine.FailureServer},
			wantExitCode: 4,
			wantIsLookup: true,
		},
		{
			name:         "wrapped LookupExitError",
			err:          fmt.Errorf("outer: %w", &cli.LookupExitError{ExitCode: 3, Kind: engine.FailureValidation}),
			wantExitCode: 3,
			wantIsLookup: true,
		},
		{
			name:         "non-LookupExitError falls through",
			err:          errors.New("generic error"),
			wantExitCode: 1,
		},
		{
			name:         "nil error returns 0",
			wantExitCode: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantExitCode, extractLookupExitCode(tt.err))

			var lookupErr *cli.LookupExitError
			assert.Equal(t, tt.wantIsLookup, errors.As(tt.err, &lookupErr))
		})
	}
}

func TestLookupExitErrorUnwrap(t *testing.T) {
	cause := engine.NewNotFoundFailure(404, "Pokémon not found")
	err := &cli.LookupExitError{ExitCode: 2, Kind: engine.FailureNotFound, Err: cause}

	f, ok := engine.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, engine.FailureNotFound, f.Kind)
	assert.Equal(t, "lookup failed (not_found)", err.Error())
}
