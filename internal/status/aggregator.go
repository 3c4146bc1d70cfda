package status

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/egeskov/localenv/internal/docker"
	"github.com/egeskov/localenv/internal/registry"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultQueryTimeout = 10 * time.Second
	DefaultConcurrency  = 4
)

// Runtime is the container runtime queried for live units
type Runtime interface {
	Ping(ctx context.Context) error
	ListRunningUnits(ctx context.Context, name string) ([]docker.Unit, error)
}

// Registry knows which environments exist and how they are configured
type Registry interface {
	ListEnvironments() ([]registry.EnvironmentID, error)
	ResolveConfig(id registry.EnvironmentID) (registry.EnvironmentConfig, error)
}

// Aggregator builds the status report
type Aggregator struct {
	runtime      Runtime
	registry     Registry
	queryTimeout time.Duration
	concurrency  int
	logger       *slog.Logger
}

// Option configures an Aggregator
type Option func(*Aggregator)

// WithQueryTimeout bounds each per-environment runtime query
func WithQueryTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.queryTimeout = d
		}
	}
}

// WithConcurrency sets how many environments are queried at once. 1 is sequential.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithLogger sets the diagnostic logger
func WithLogger(l *slog.Logger) Option {
	return func(a *Aggregator) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAggregator creates an Aggregator
func NewAggregator(rt Runtime, reg Registry, opts ...Option) *Aggregator {
	a := &Aggregator{
		runtime:      rt,
		registry:     reg,
		queryTimeout: DefaultQueryTimeout,
		concurrency:  DefaultConcurrency,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate returns one status per environment, in registry order.
//
// It fails only when the runtime probe fails (ErrRuntimeUnavailable) or the
// registry cannot be listed. Per-environment failures end up in the rows.
func (a *Aggregator) Aggregate(ctx context.Context) ([]EnvironmentStatus, error) {
	probeCtx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	err := a.runtime.Ping(probeCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
	}

	ids, err := a.registry.ListEnvironments()
	if err != nil {
		return nil, fmt.Errorf("failed to list environments: %w", err)
	}

	// Each task owns out[i]; no task ever returns an error, so none cancels another.
	out := make([]EnvironmentStatus, len(ids))
	var g errgroup.Group
	g.SetLimit(a.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			out[i] = a.check(ctx, id)
			return nil
		})
	}
	_ = g.Wait()

	return out, nil
}

// check resolves and queries a single environment
func (a *Aggregator) check(ctx context.Context, id registry.EnvironmentID) EnvironmentStatus {
	st := EnvironmentStatus{ID: id}

	cfg, cfgErr := a.registry.ResolveConfig(id)
	if cfgErr != nil {
		// The runtime lookup only needs the name, so the row is still reported.
		a.logger.Warn("could not resolve environment host",
			slog.String("subsystem", "status"),
			slog.String("environment", string(id)),
			slog.String("error", cfgErr.Error()))
		st.Err = cfgErr
	} else {
		st.PrimaryURL = URLForHost(cfg.PrimaryHost())
	}

	units, err := a.query(ctx, id)

	switch {
	case err != nil:
		a.logger.Error("environment status query failed",
			slog.String("subsystem", "status"),
			slog.String("environment", string(id)),
			slog.String("error", err.Error()))
		st.State = StateError
		st.Err = err
	case len(units) > 0:
		st.State = StateUp
	default:
		st.State = StateDown
	}

	return st
}

type queryResult struct {
	units []docker.Unit
	err   error
}

// query runs ListRunningUnits under the query timeout. The deadline holds
// even if the runtime ignores its context.
func (a *Aggregator) query(ctx context.Context, id registry.EnvironmentID) ([]docker.Unit, error) {
	queryCtx, cancel := context.WithTimeout(ctx, a.queryTimeout)
	defer cancel()

	done := make(chan queryResult, 1)
	go func() {
		units, err := a.runtime.ListRunningUnits(queryCtx, string(id))
		done <- queryResult{units: units, err: err}
	}()

	select {
	case res := <-done:
		return res.units, res.err
	case <-queryCtx.Done():
		return nil, fmt.Errorf("query %s: %w", id, queryCtx.Err())
	}
}
