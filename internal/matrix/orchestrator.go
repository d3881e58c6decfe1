package matrix

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"PercentileBoard/internal/collector"
	"PercentileBoard/internal/model"
)

// Options tunes how the matrix is fetched. The zero value dispatches every
// pair at once with a single attempt, which is what the board does by default.
type Options struct {
	// Concurrency caps in-flight requests. 0 means unbounded.
	Concurrency int
	// Attempts per pair, including the first one. Values below 1 mean 1.
	Attempts int
	// Backoff is the delay before the first retry; it doubles per retry.
	Backoff time.Duration
	// Timeout bounds a single request. 0 leaves it to the fetcher.
	Timeout time.Duration
	// Limiter paces outbound requests when set.
	Limiter *rate.Limiter
}

// Result is the outcome of one matrix fetch. Every requested pair resolves to
// exactly one entry in either Observations or Failures.
type Result struct {
	Requested    []model.Pair
	Observations []model.Observation
	Failures     []error
}

// TotalFailure reports whether pairs were requested and none succeeded.
func (r *Result) TotalFailure() bool {
	return len(r.Requested) > 0 && len(r.Observations) == 0
}

// Orchestrator fans requests out across instruments × windows.
type Orchestrator struct {
	Fetcher collector.Fetcher
	Options Options
	log     zerolog.Logger
}

// NewOrchestrator creates an Orchestrator backed by fetcher.
func NewOrchestrator(fetcher collector.Fetcher, opts Options, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		Fetcher: fetcher,
		Options: opts,
		log:     log.With().Str("component", "matrix").Logger(),
	}
}

// Pairs builds the instrument-major cross product of the inputs. Repeated
// instruments or windows are collapsed, keeping first-occurrence order.
func Pairs(instruments []model.Instrument, windows []model.WindowSize) []model.Pair {
	insts := dedup(instruments)
	wins := dedup(windows)
	pairs := make([]model.Pair, 0, len(insts)*len(wins))
	for _, inst := range insts {
		for _, w := range wins {
			pairs = append(pairs, model.Pair{Instrument: inst, Window: w})
		}
	}
	return pairs
}

func dedup[T comparable](in []T) []T {
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// outcome is the settled result of one pair. Exactly one field is set.
type outcome struct {
	obs *model.Observation
	err error
}

// FetchMatrix requests every distinct (instrument, window) pair concurrently
// and waits for all of them to settle. Individual failures are collected in
// the result, never returned; one pair failing does not affect the others.
func (o *Orchestrator) FetchMatrix(ctx context.Context, instruments []model.Instrument, windows []model.WindowSize) *Result {
	pairs := Pairs(instruments, windows)
	outcomes := make([]outcome, len(pairs))

	// Tasks never return an error, so the group never cancels its siblings.
	var g errgroup.Group
	if o.Options.Concurrency > 0 {
		g.SetLimit(o.Options.Concurrency)
	}
	start := time.Now()
	for i, p := range pairs {
		i, p := i, p
		g.Go(func() error {
			outcomes[i] = o.fetchPair(ctx, p)
			return nil
		})
	}
	_ = g.Wait() // always nil

	res := &Result{Requested: pairs}
	for _, oc := range outcomes {
		if oc.err != nil {
			res.Failures = append(res.Failures, oc.err)
			continue
		}
		res.Observations = append(res.Observations, *oc.obs)
	}

	o.log.Info().
		Int("requested", len(pairs)).
		Int("observations", len(res.Observations)).
		Int("failures", len(res.Failures)).
		Dur("elapsed", time.Since(start)).
		Msg("matrix fetched")
	return res
}

func (o *Orchestrator) fetchPair(ctx context.Context, p model.Pair) outcome {
	series, err := o.fetchWithRetry(ctx, p)
	if err != nil {
		o.log.Warn().Err(err).Str("instrument", string(p.Instrument)).Int("window", int(p.Window)).Msg("fetch failed")
		return outcome{err: &FetchError{Instrument: p.Instrument, Window: p.Window, Cause: err}}
	}
	// The request key is authoritative for tagging.
	tagged := model.Series{Instrument: p.Instrument, Window: p.Window}
	if series != nil {
		tagged.Points = series.Points
	}

	obs, err := ExtractLatest(&tagged)
	if err != nil {
		o.log.Warn().Str("instrument", string(p.Instrument)).Int("window", int(p.Window)).Msg("empty series")
		return outcome{err: err}
	}
	return outcome{obs: &obs}
}

func (o *Orchestrator) fetchWithRetry(ctx context.Context, p model.Pair) (*model.Series, error) {
	attempts := o.Options.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := o.Options.Backoff

	var lastErr error
	made := 0
	for i := 0; i < attempts; i++ {
		if i > 0 {
			o.log.Debug().Err(lastErr).Str("instrument", string(p.Instrument)).Int("window", int(p.Window)).
				Int("attempt", i+1).Dur("backoff", backoff).Msg("retrying fetch")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		made++
		series, err := o.fetchOnce(ctx, p)
		if err == nil {
			return series, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	if made > 1 {
		return nil, fmt.Errorf("all %d attempts failed: %w", made, lastErr)
	}
	return nil, lastErr
}

func (o *Orchestrator) fetchOnce(ctx context.Context, p model.Pair) (*model.Series, error) {
	if o.Options.Limiter != nil {
		if err := o.Options.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}
	if o.Options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.Options.Timeout)
		defer cancel()
	}
	return o.Fetcher.FetchSeries(ctx, p.Instrument, p.Window)
}
