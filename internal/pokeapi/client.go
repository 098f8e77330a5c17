// Package pokeapi is the HTTP client for the pokedex backend. It issues the
// primary search call and the three secondary attribute reads, and maps
// every failure into the engine's Failure taxonomy.
package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rshade/pokedex/internal/engine"
	"github.com/rshade/pokedex/internal/logging"
)

// Endpoint paths relative to the base URL.
const (
	SearchPath    = "/api/pokemon/search/"
	MovesPath     = "/api/pokemon/%s/moves/"
	StatsPath     = "/api/pokemon/%s/stats/"
	AbilitiesPath = "/api/pokemon/%s/abilities/"

	// SearchField is the form field carrying the query.
	SearchField = "pokemon"

	// HeaderCSRFToken carries the anti-forgery token on the search call.
	HeaderCSRFToken = "X-CSRFToken"
	// HeaderRequestID carries the trace id of the calling operation.
	HeaderRequestID = "X-Request-ID"

	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "pokedex-cli"
	maxBodyBytes     = 1 << 20
	unknownErrorText = "Unknown network error."
)

// Client talks to one backend. The zero value is not usable; call New.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	token   TokenSource
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient.Timeout = d
		}
	}
}

// WithTokenSource sets where the anti-forgery token comes from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.token = ts }
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.UserAgent = ua
		}
	}
}

// New creates a Client for baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		UserAgent:  defaultUserAgent,
		token:      StaticToken(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ engine.API = (*Client)(nil)

// Search resolves a name or id through the state-changing search call.
func (c *Client) Search(ctx context.Context, query string) (engine.PrimaryRecord, error) {
	token, err := c.token.Token(ctx)
	if err != nil {
		logging.FromContext(ctx).Warn().
			Ctx(ctx).
			Str("component", "pokeapi").
			Err(err).
			Msg("anti-forgery token unavailable, sending empty token")
		token = ""
	}

	form := url.Values{SearchField: {query}}
	req, err := c.newRequest(ctx, http.MethodPost, SearchPath, strings.NewReader(form.Encode()))
	if err != nil {
		return engine.PrimaryRecord{}, engine.NewTransportFailure(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set(HeaderCSRFToken, token)

	var body searchResponse
	if err := c.do(req, &body); err != nil {
		return engine.PrimaryRecord{}, err
	}
	return body.record(), nil
}

// FetchMoves returns the level-up moves for name.
func (c *Client) FetchMoves(ctx context.Context, name string) ([]engine.MoveEntry, error) {
	var body movesResponse
	if err := c.get(ctx, MovesPath, name, &body); err != nil {
		return nil, err
	}
	return body.entries(), nil
}

// FetchStats returns the base stats for name.
func (c *Client) FetchStats(ctx context.Context, name string) ([]engine.StatEntry, error) {
	var body statsResponse
	if err := c.get(ctx, StatsPath, name, &body); err != nil {
		return nil, err
	}
	return body.entries(), nil
}

// FetchAbilities returns the abilities for name.
func (c *Client) FetchAbilities(ctx context.Context, name string) ([]engine.AbilityEntry, error) {
	var body abilitiesResponse
	if err := c.get(ctx, AbilitiesPath, name, &body); err != nil {
		return nil, err
	}
	return body.entries(), nil
}

func (c *Client) get(ctx context.Context, pathFormat, name string, out any) error {
	path := fmt.Sprintf(pathFormat, url.PathEscape(strings.ToLower(name)))
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return engine.NewTransportFailure(err)
	}
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)
	if id := logging.TraceIDFromContext(ctx); id != "" {
		req.Header.Set(HeaderRequestID, id)
	}
	return req, nil
}

// do sends req and decodes a successful JSON body into out. Every error it
// returns is an *engine.Failure.
func (c *Client) do(req *http.Request, out any) error {
	ctx := req.Context()
	logger := logging.FromContext(ctx).With().
		Str("component", "pokeapi").
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Logger()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return engine.NewTransportFailure(fmt.Errorf("rate limiter: %w", err))
		}
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		logger.Debug().Ctx(ctx).Err(err).Msg("request failed")
		return engine.NewTransportFailure(err)
	}
	defer resp.Body.Close()

	logger.Debug().
		Ctx(ctx).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("response received")

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return engine.NewTransportFailure(fmt.Errorf("reading response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ClassifyStatus(resp.StatusCode, errorMessage(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return engine.NewTransportFailure(fmt.Errorf("decoding %s response: %w", req.URL.Path, err))
	}
	return nil
}

// ClassifyStatus maps a non-success HTTP status to its failure kind.
func ClassifyStatus(status int, message string) *engine.Failure {
	switch status {
	case http.StatusBadRequest:
		return engine.NewValidationFailure(status, message)
	case http.StatusNotFound:
		return engine.NewNotFoundFailure(status, message)
	default:
		return engine.NewServerFailure(status, message)
	}
}

// errorMessage pulls the user-facing text out of an error body. The backend
// uses "message" or "error"; anything unparseable yields a generic text.
func errorMessage(data []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return unknownErrorText
	}
	switch {
	case body.Message != "":
		return body.Message
	case body.Error != "":
		return body.Error
	default:
		return unknownErrorText
	}
}

