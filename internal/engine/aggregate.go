package engine

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rshade/pokedex/internal/logging"
)

// Sentinel errors returned by the Aggregator guard. They never reach the
// user; callers treat them as "nothing to do".
var (
	ErrEmptyQuery     = errors.New("query is empty")
	ErrLookupInFlight = errors.New("a lookup is already in flight")
	ErrFetchConsumed  = errors.New("fetch has already been run")
)

// API is the backend surface the Aggregator depends on. Implementations
// return *Failure for every error they classify.
type API interface {
	Search(ctx context.Context, query string) (PrimaryRecord, error)
	FetchMoves(ctx context.Context, name string) ([]MoveEntry, error)
	FetchStats(ctx context.Context, name string) ([]StatEntry, error)
	FetchAbilities(ctx context.Context, name string) ([]AbilityEntry, error)
}

// Aggregator resolves a query through the primary search call and merges
// the three secondary attribute sets into one AggregatedRecord.
type Aggregator struct {
	api API
}

// NewAggregator creates an Aggregator backed by api.
func NewAggregator(api API) *Aggregator {
	return &Aggregator{api: api}
}

// IsRejected reports whether err came from the entry guard rather than a lookup.
func IsRejected(err error) bool {
	return errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrLookupInFlight)
}

// Fetch is one admitted lookup. The navigator is already loading when a
// Fetch exists; Run performs the network work and releases it.
type Fetch struct {
	agg   *Aggregator
	nav   *Navigator
	query string
	ran   atomic.Bool
}

// Query returns the trimmed query this fetch will resolve.
func (f *Fetch) Query() string {
	return f.query
}

// Begin applies the entry guard and, if it passes, marks nav as loading
// before returning. No network call is made. Rejected requests leave nav
// untouched.
func (a *Aggregator) Begin(query string, nav *Navigator) (*Fetch, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	if !nav.tryBegin() {
		return nil, ErrLookupInFlight
	}
	return &Fetch{agg: a, nav: nav, query: q}, nil
}

// FetchEntity is Begin followed by Run.
func (a *Aggregator) FetchEntity(ctx context.Context, query string, nav *Navigator) (AggregatedRecord, error) {
	f, err := a.Begin(query, nav)
	if err != nil {
		return AggregatedRecord{}, err
	}
	return f.Run(ctx)
}

// Run resolves the query and returns the merged record, or the primary
// call's *Failure. Secondary failures are logged and degrade to empty
// slices. The loading flag is released on every path; the current id only
// moves on success. A Fetch can be run once.
func (f *Fetch) Run(ctx context.Context) (AggregatedRecord, error) {
	if !f.ran.CompareAndSwap(false, true) {
		return AggregatedRecord{}, ErrFetchConsumed
	}

	var resolvedID int
	defer func() { f.nav.finish(resolvedID) }()

	logger := logging.FromContext(ctx).With().
		Str("component", "engine").
		Str("operation", "fetch_entity").
		Str("query", f.query).
		Logger()
	start := time.Now()

	primary, err := f.agg.api.Search(ctx, f.query)
	if err != nil {
		failure := toFailure(err)
		logger.Debug().
			Ctx(ctx).
			Str("kind", failure.Kind.String()).
			Int("status", failure.Status).
			Err(err).
			Msg("primary lookup failed")
		return AggregatedRecord{}, failure
	}
	if primary.ID <= 0 {
		return AggregatedRecord{}, NewTransportFailure(errors.New("search response carried no id"))
	}

	record := f.agg.fetchSecondary(ctx, logger, primary)
	resolvedID = primary.ID

	logger.Debug().
		Ctx(ctx).
		Int("id", primary.ID).
		Int("moves", len(record.Moves)).
		Int("stats", len(record.Stats)).
		Int("abilities", len(record.Abilities)).
		Dur("duration", time.Since(start)).
		Msg("lookup complete")

	return record, nil
}

// fetchSecondary starts all three attribute calls before waiting on any of
// them and merges whatever succeeded.
func (a *Aggregator) fetchSecondary(
	ctx context.Context,
	logger zerolog.Logger,
	primary PrimaryRecord,
) AggregatedRecord {
	name := strings.ToLower(primary.Name)

	var (
		moves     Result[[]MoveEntry]
		stats     Result[[]StatEntry]
		abilities Result[[]AbilityEntry]
	)

	// Every goroutine returns nil; errors travel in the Results so one
	// failure never short-circuits the others.
	var g errgroup.Group
	g.Go(func() error {
		v, err := a.api.FetchMoves(ctx, name)
		moves = Capture(v, err)
		return nil
	})
	g.Go(func() error {
		v, err := a.api.FetchStats(ctx, name)
		stats = Capture(v, err)
		return nil
	})
	g.Go(func() error {
		v, err := a.api.FetchAbilities(ctx, name)
		abilities = Capture(v, err)
		return nil
	})
	_ = g.Wait()

	logSecondary(ctx, logger, "moves", moves.Err)
	logSecondary(ctx, logger, "stats", stats.Err)
	logSecondary(ctx, logger, "abilities", abilities.Err)

	return AggregatedRecord{
		PrimaryRecord: primary,
		Moves:         orEmpty(moves),
		Stats:         orEmpty(stats),
		Abilities:     orEmpty(abilities),
	}
}

func logSecondary(ctx context.Context, logger zerolog.Logger, endpoint string, err error) {
	if err == nil {
		return
	}
	logger.Warn().
		Ctx(ctx).
		Str("endpoint", endpoint).
		Str("kind", toFailure(err).Kind.String()).
		Err(err).
		Msg("secondary lookup failed, using empty list")
}
