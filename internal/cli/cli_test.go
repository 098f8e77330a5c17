package cli_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pokedex/internal/cli"
	"github.com/rshade/pokedex/internal/config"
	"github.com/rshade/pokedex/internal/engine"
	"github.com/rshade/pokedex/internal/pokeapi/pokeapitest"
	"github.com/rshade/pokedex/internal/tui"
)

// setupCLITest isolates POKEDEX_HOME, clears env overrides and resets the
// global config after the test. It returns the config directory.
func setupCLITest(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("POKEDEX_HOME", home)
	for _, k := range []string{
		"POKEDEX_BASE_URL", "POKEDEX_CSRF_TOKEN", "POKEDEX_TIMEOUT", "POKEDEX_RATE_LIMIT",
		"POKEDEX_LOG_FORMAT", "POKEDEX_OUTPUT", "NO_COLOR",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("POKEDEX_LOG_LEVEL", "error")
	config.ResetGlobalConfigForTest()
	t.Cleanup(config.ResetGlobalConfigForTest)
	return home
}

type runResult struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := cli.NewRootCmd("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func newBackend(t *testing.T) *pokeapitest.Server {
	t.Helper()
	srv := pokeapitest.NewServer(pokeapitest.Bulbasaur(), pokeapitest.Pikachu())
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch_Text(t *testing.T) {
	setupCLITest(t)
	srv := newBackend(t)

	res := execute(t, "search", "pikachu", "--base-url", srv.URL)
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "Pikachu (#25)")
	assert.Contains(t, res.stdout, "Type:    ELECTRIC")
	assert.Contains(t, res.stdout, "Show moves (2)")
	assert.NotContains(t, res.stdout, "\x1b[", "piped output is plain")

	// The token was read from the home page and sent with the search.
	assert.Equal(t, 1, srv.Calls(pokeapitest.EndpointHome))
	req, ok := srv.LastRequest(pokeapitest.EndpointSearch)
	require.True(t, ok)
	assert.Equal(t, pokeapitest.DefaultToken, req.Header.Get("X-CSRFToken"))
	assert.NotEmpty(t, req.Header.Get("X-Request-ID"))
}

func TestSearch_StaticTokenAndMoves(t *testing.T) {
	setupCLITest(t)
	srv := newBackend(t)

	res := execute(t, "search", "25", "--moves", "--base-url", srv.URL, "--token", "flag-token")
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "Thunder Shock")
	assert.Zero(t, srv.Calls(pokeapitest.EndpointHome))
	req, ok := srv.LastRequest(pokeapitest.EndpointSearch)
	require.True(t, ok)
	assert.Equal(t, "flag-token", req.Header.Get("X-CSRFToken"))
	assert.Equal(t, "25", req.Form.Get("pokemon"))
}

func TestSearch_JSON(t *testing.T) {
	setupCLITest(t)
	srv := newBackend(t)
	srv.Fail(pokeapitest.EndpointAbilities, http.StatusServiceUnavailable)

	res := execute(t, "search", "bulbasaur", "-o", "json", "--base-url", srv.URL)
	require.NoError(t, res.err)

	var rec engine.AggregatedRecord
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rec))
	assert.Equal(t, 1, rec.ID)
	assert.Equal(t, "Bulbasaur", rec.Name)
	assert.NotNil(t, rec.Abilities)
	assert.Empty(t, rec.Abilities)
}

func TestSearch_FailureExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		fail     int
		wantCode int
		wantKind engine.FailureKind
		wantText string
	}{
		{"not found", "missingno", 0, cli.ExitCodeNotFound, engine.FailureNotFound, "No results: Pokémon not found"},
		{"validation", "pikachu", http.StatusBadRequest, cli.ExitCodeValidation, engine.FailureValidation, "Attention: Bad Request"},
		{"server", "pikachu", http.StatusInternalServerError, cli.ExitCodeBackend, engine.FailureServer, tui.CommunicationErrorText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupCLITest(t)
			srv := newBackend(t)
			if tt.fail != 0 {
				srv.Fail(pokeapitest.EndpointSearch, tt.fail)
			}

			res := execute(t, "search", tt.query, "--base-url", srv.URL)

			var exitErr *cli.LookupExitError
			require.ErrorAs(t, res.err, &exitErr)
			assert.Equal(t, tt.wantCode, exitErr.ExitCode)
			assert.Equal(t, tt.wantKind, exitErr.Kind)
			assert.Contains(t, res.stderr, tt.wantText)
			assert.Empty(t, res.stdout)
			assert.Zero(t, srv.Calls(pokeapitest.EndpointMoves), "no secondary calls after a primary failure")
		})
	}
}

func TestSearch_TransportFailure(t *testing.T) {
	setupCLITest(t)
	srv := newBackend(t)
	url := srv.URL
	srv.Close()

	res := execute(t, "search", "pikachu", "--base-url", url, "--token", "t", "-o", "json")

	var exitErr *cli.LookupExitError
	require.ErrorAs(t, res.err, &exitErr)
	assert.Equal(t, cli.ExitCodeBackend, exitErr.ExitCode)
	assert.Equal(t, engine.FailureTransport, exitErr.Kind)

	var decoded struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &decoded))
	assert.Equal(t, "transport", decoded.Error.Kind)
	assert.Equal(t, tui.CommunicationErrorText, decoded.Error.Message)
}

func TestSearch_BadInput(t *testing.T) {
	setupCLITest(t)
	srv := newBackend(t)

	res := execute(t, "search", "   ", "--base-url", srv.URL)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "must not be empty")
	assert.Zero(t, srv.Calls(pokeapitest.EndpointSearch))

	res = execute(t, "search", "pikachu", "-o", "yaml", "--base-url", srv.URL)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "unsupported output format")

	res = execute(t, "search")
	require.Error(t, res.err)
}

func TestSearch_InvalidConfig(t *testing.T) {
	setupCLITest(t)
	t.Setenv("POKEDEX_TIMEOUT", "-1s")

	res := execute(t, "search", "pikachu")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "api.timeout")

	var exitErr *cli.LookupExitError
	assert.False(t, errors.As(res.err, &exitErr))
}

func TestSearch_ConfigOverlay(t *testing.T) {
	setupCLITest(t)
	srv := newBackend(t)

	overlay := filepath.Join(t.TempDir(), "overlay.yaml")
	body := "api:\n  base_url: " + srv.URL + "\n  token: overlay-token\noutput:\n  default_format: json\n"
	require.NoError(t, os.WriteFile(overlay, []byte(body), 0o600))

	res := execute(t, "search", "pikachu", "--config", overlay)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"primary_type": "electric"`)

	req, ok := srv.LastRequest(pokeapitest.EndpointSearch)
	require.True(t, ok)
	assert.Equal(t, "overlay-token", req.Header.Get("X-CSRFToken"))

	res = execute(t, "search", "pikachu", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "--config")
}

func TestBrowse_RequiresTerminal(t *testing.T) {
	setupCLITest(t)

	res := execute(t, "browse", "pikachu")
	require.ErrorIs(t, res.err, cli.ErrNotInteractive)
}

func TestExitCodeForKind(t *testing.T) {
	assert.Equal(t, 2, cli.ExitCodeForKind(engine.FailureNotFound))
	assert.Equal(t, 3, cli.ExitCodeForKind(engine.FailureValidation))
	assert.Equal(t, 4, cli.ExitCodeForKind(engine.FailureServer))
	assert.Equal(t, 4, cli.ExitCodeForKind(engine.FailureTransport))
	assert.Equal(t, 1, cli.ExitCodeForKind(engine.FailureKind(0)))
}

func TestVersionFlag(t *testing.T) {
	setupCLITest(t)

	res := execute(t, "--version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "test")
}
