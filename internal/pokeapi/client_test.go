package pokeapi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/pokedex/internal/engine"
	"github.com/rshade/pokedex/internal/logging"
	"github.com/rshade/pokedex/internal/pokeapi"
	"github.com/rshade/pokedex/internal/pokeapi/pokeapitest"
)

func newBackend(t *testing.T) *pokeapitest.Server {
	t.Helper()
	srv := pokeapitest.NewServer(pokeapitest.Pikachu(), pokeapitest.Bulbasaur())
	t.Cleanup(srv.Close)
	return srv
}

func TestSearch(t *testing.T) {
	srv := newBackend(t)
	client := pokeapi.New(srv.URL, pokeapi.WithTokenSource(pokeapi.StaticToken("abc")))
	ctx := logging.ContextWithTraceID(context.Background(), "trace-123")

	rec, err := client.Search(ctx, "25")
	require.NoError(t, err)

	assert.Equal(t, pokeapitest.Pikachu().PrimaryRecord, rec)

	req, ok := srv.LastRequest(pokeapitest.EndpointSearch)
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "25", req.Form.Get(pokeapi.SearchField))
	assert.Equal(t, "abc", req.Header.Get(pokeapi.HeaderCSRFToken))
	assert.Equal(t, "XMLHttpRequest", req.Header.Get("X-Requested-With"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "trace-123", req.Header.Get(pokeapi.HeaderRequestID))
}

func TestSearch_FailureClassification(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		failStatus  int
		wantKind    engine.FailureKind
		wantStatus  int
		wantMessage string
	}{
		{name: "empty query", query: "", wantKind: engine.FailureValidation, wantStatus: 400, wantMessage: "Please provide a Pokémon name"},
		{name: "unknown", query: "unknownmon", wantKind: engine.FailureNotFound, wantStatus: 404, wantMessage: "Pokémon not found"},
		{name: "bad gateway", query: "25", failStatus: 502, wantKind: engine.FailureServer, wantStatus: 502},
		{name: "internal error", query: "25", failStatus: 500, wantKind: engine.FailureServer, wantStatus: 500},
		{name: "forbidden", query: "25", failStatus: 403, wantKind: engine.FailureServer, wantStatus: 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBackend(t)
			srv.Fail(pokeapitest.EndpointSearch, tt.failStatus)

			_, err := pokeapi.New(srv.URL).Search(context.Background(), tt.query)

			failure, ok := engine.AsFailure(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.wantKind, failure.Kind)
			assert.Equal(t, tt.wantStatus, failure.Status)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, failure.Message)
			}
		})
	}
}

func TestSearch_TransportFailures(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := pokeapi.New(url).Search(context.Background(), "25")

		failure, ok := engine.AsFailure(err)
		require.True(t, ok)
		assert.Equal(t, engine.FailureTransport, failure.Kind)
		assert.Zero(t, failure.Status)
	})

	t.Run("malformed payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"name": "Pikachu", "number": `))
		}))
		t.Cleanup(srv.Close)

		_, err := pokeapi.New(srv.URL).Search(context.Background(), "25")

		failure, ok := engine.AsFailure(err)
		require.True(t, ok)
		assert.Equal(t, engine.FailureTransport, failure.Kind)
	})

	t.Run("timeout", func(t *testing.T) {
		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(func() {
			close(release)
			srv.Close()
		})

		_, err := pokeapi.New(srv.URL, pokeapi.WithTimeout(50*time.Millisecond)).Search(context.Background(), "25")

		failure, ok := engine.AsFailure(err)
		require.True(t, ok)
		assert.Equal(t, engine.FailureTransport, failure.Kind)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := newBackend(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := pokeapi.New(srv.URL).Search(ctx, "25")

		require.ErrorIs(t, err, context.Canceled)
		failure, _ := engine.AsFailure(err)
		assert.Equal(t, engine.FailureTransport, failure.Kind)
	})
}

func TestErrorBodyFallbacks(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message", `{"message": "Bad input"}`, "Bad input"},
		{"error key", `{"error": "Proporciona el nombre"}`, "Proporciona el nombre"},
		{"both prefers message", `{"message": "m", "error": "e"}`, "m"},
		{"empty object", `{}`, "Unknown network error."},
		{"html", `<h1>Bad Request</h1>`, "Unknown network error."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			_, err := pokeapi.New(srv.URL).Search(context.Background(), "x")

			failure, ok := engine.AsFailure(err)
			require.True(t, ok)
			assert.Equal(t, engine.FailureValidation, failure.Kind)
			assert.Equal(t, tt.want, failure.Message)
		})
	}
}

func TestSecondaryCalls(t *testing.T) {
	srv := newBackend(t)
	client := pokeapi.New(srv.URL + "/")
	want := pokeapitest.Pikachu()
	ctx := context.Background()

	moves, err := client.FetchMoves(ctx, "Pikachu")
	require.NoError(t, err)
	if diff := cmp.Diff(want.Moves, moves); diff != "" {
		t.Errorf("moves mismatch (-want +got):\n%s", diff)
	}

	stats, err := client.FetchStats(ctx, "pikachu")
	require.NoError(t, err)
	assert.Equal(t, want.Stats, stats)

	abilities, err := client.FetchAbilities(ctx, "pikachu")
	require.NoError(t, err)
	assert.Equal(t, want.Abilities, abilities)

	req, ok := srv.LastRequest(pokeapitest.EndpointMoves)
	require.True(t, ok)
	assert.Equal(t, "/api/pokemon/pikachu/moves/", req.Path, "names are lower-cased")
	assert.Empty(t, req.Header.Get(pokeapi.HeaderCSRFToken), "reads carry no token")
}

func TestSecondaryCalls_NotFound(t *testing.T) {
	srv := newBackend(t)

	_, err := pokeapi.New(srv.URL).FetchStats(context.Background(), "missingno")

	failure, ok := engine.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, engine.FailureNotFound, failure.Kind)
}

func TestLenientDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case pokeapi.SearchPath:
			_, _ = w.Write([]byte(`{"name": "Mew", "number": 151, "type": "psychic", "height": "4", "weight": null, "sprite": ""}`))
		default:
			_, _ = w.Write([]byte(`{"moves": [{"name": "pound", "level": "1", "power": null, "accuracy": "100", "pp": 35}]}`))
		}
	}))
	t.Cleanup(srv.Close)
	client := pokeapi.New(srv.URL)

	rec, err := client.Search(context.Background(), "mew")
	require.NoError(t, err)
	assert.Equal(t, engine.PrimaryRecord{ID: 151, Name: "Mew", PrimaryType: "psychic", HeightDecimetres: 4}, rec)

	moves, err := client.FetchMoves(context.Background(), "mew")
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Nil(t, moves[0].Power)
	require.NotNil(t, moves[0].Accuracy)
	assert.Equal(t, 100, *moves[0].Accuracy)
	assert.Equal(t, 1, moves[0].Level)
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, engine.FailureValidation, pokeapi.ClassifyStatus(400, "").Kind)
	assert.Equal(t, engine.FailureNotFound, pokeapi.ClassifyStatus(404, "").Kind)
	for _, status := range []int{401, 403, 405, 429, 500, 502, 503} {
		assert.Equal(t, engine.FailureServer, pokeapi.ClassifyStatus(status, "").Kind, "status %d", status)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newBackend(t)
	client := pokeapi.New(srv.URL, pokeapi.WithRateLimit(20, 1))

	start := time.Now()
	for range 3 {
		_, err := client.FetchStats(context.Background(), "pikachu")
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestAggregatorAgainstBackend(t *testing.T) {
	srv := newBackend(t)
	srv.Fail(pokeapitest.EndpointAbilities, http.StatusServiceUnavailable)
	agg := engine.NewAggregator(pokeapi.New(srv.URL))
	nav := engine.NewNavigator()

	rec, err := agg.FetchEntity(context.Background(), "25", nav)
	require.NoError(t, err)

	want := pokeapitest.Pikachu()
	want.Abilities = []engine.AbilityEntry{}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 25, nav.Snapshot().CurrentID)
	assert.Equal(t, 1, srv.Calls(pokeapitest.EndpointSearch))
	assert.Equal(t, 1, srv.Calls(pokeapitest.EndpointMoves))
	assert.Equal(t, 1, srv.Calls(pokeapitest.EndpointStats))
	assert.Equal(t, 1, srv.Calls(pokeapitest.EndpointAbilities))

	next, ok := nav.NextQuery()
	require.True(t, ok)
	_, err = agg.FetchEntity(context.Background(), next, nav)
	failure, ok := engine.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, engine.FailureNotFound, failure.Kind)
	assert.Equal(t, 25, nav.Snapshot().CurrentID, "running past the end keeps the cursor")
}
