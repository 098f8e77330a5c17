package cli

import (
	"fmt"
	"strings"

	"github.com/rshade/pokedex/internal/config"
	"github.com/rshade/pokedex/internal/engine"
	"github.com/rshade/pokedex/internal/pokeapi"
)

// session is the wiring shared by the lookup commands: an aggregator over
// one backend client and the navigator it drives.
type session struct {
	agg *engine.Aggregator
	nav *engine.Navigator
}

// newSession validates cfg and builds the backend client from it. An explicit
// token wins over reading one from the backend home page.
func newSession(cfg *config.Config) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	opts := []pokeapi.Option{
		pokeapi.WithUserAgent(cfg.API.UserAgent),
		pokeapi.WithRateLimit(cfg.API.RateLimit, cfg.API.Burst),
	}

	switch {
	case cfg.API.Token != "":
		opts = append(opts, pokeapi.WithTokenSource(pokeapi.StaticToken(cfg.API.Token)))
	case cfg.API.TokenFromPage:
		src, err := pokeapi.NewPageTokenSource(strings.TrimRight(cfg.API.BaseURL, "/")+"/", nil)
		if err != nil {
			return nil, fmt.Errorf("creating token source: %w", err)
		}
		// Share the jar so the CSRF cookie set by the page goes out with the search.
		opts = append(opts, pokeapi.WithHTTPClient(src.Client()), pokeapi.WithTokenSource(src))
	}

	// Timeout last: it applies to whichever HTTP client was chosen above.
	opts = append(opts, pokeapi.WithTimeout(cfg.API.Timeout))

	client := pokeapi.New(cfg.API.BaseURL, opts...)
	return &session{
		agg: engine.NewAggregator(client),
		nav: engine.NewNavigator(),
	}, nil
}
