// Package board runs refresh cycles: fetch the percentile matrix, pivot it
// into table rows and keep the latest snapshot for the running process.
package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"PercentileBoard/internal/matrix"
	"PercentileBoard/internal/metrics"
	"PercentileBoard/internal/model"
	"PercentileBoard/internal/recorder"
)

// Service owns the board's instrument and window sets.
type Service struct {
	Orchestrator *matrix.Orchestrator
	Instruments  []model.Instrument
	Windows      []model.WindowSize
	Recorder     recorder.Recorder
	Metrics      *metrics.Metrics

	log       zerolog.Logger
	refreshMu sync.Mutex
	mu        sync.RWMutex
	latest    *model.Snapshot
	now       func() time.Time
}

// NewService creates a Service. rec and m may be nil.
func NewService(orch *matrix.Orchestrator, instruments []model.Instrument, windows []model.WindowSize,
	rec recorder.Recorder, m *metrics.Metrics, log zerolog.Logger) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{
		Orchestrator: orch,
		Instruments:  instruments,
		Windows:      windows,
		Recorder:     rec,
		Metrics:      m,
		log:          log.With().Str("component", "board").Logger(),
		now:          time.Now,
	}
}

// Refresh runs one fetch-and-pivot cycle. Missing cells are normal and
// reported in Snapshot.Failures. When every pair failed the snapshot is still
// returned, together with a *matrix.TotalFailureError, and the previous
// latest snapshot is kept.
func (s *Service) Refresh(ctx context.Context) (*model.Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.refresh(ctx)
}

// refresh runs a cycle; callers hold refreshMu.
func (s *Service) refresh(ctx context.Context) (*model.Snapshot, error) {
	start := s.now()
	res := s.Orchestrator.FetchMatrix(ctx, s.Instruments, s.Windows)
	rows := matrix.Pivot(res.Observations)

	snap := &model.Snapshot{
		ID:        uuid.NewString(),
		TakenAt:   start,
		Windows:   windowsOf(res.Requested),
		Rows:      rows,
		Requested: len(res.Requested),
		Failures:  failuresOf(res.Failures),
	}
	s.Metrics.ObserveCycle(res, len(rows), s.now().Sub(start))

	if err := s.Recorder.RecordSnapshot(snap); err != nil {
		s.log.Error().Err(err).Str("cycle", snap.ID).Msg("record snapshot")
	}

	if res.TotalFailure() {
		s.log.Error().Int("requested", snap.Requested).Msg("no data available for any pair")
		return snap, &matrix.TotalFailureError{Requested: len(res.Requested), Failures: res.Failures}
	}

	s.mu.Lock()
	s.latest = snap
	s.mu.Unlock()

	s.log.Info().
		Str("cycle", snap.ID).
		Int("rows", len(rows)).
		Int("failures", len(snap.Failures)).
		Msg("board refreshed")
	return snap, nil
}

// Latest returns the most recent successful snapshot, or nil before the
// first one.
func (s *Service) Latest() *model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// LatestOrRefresh returns the latest snapshot, refreshing first if there is
// none yet. Concurrent callers waiting on the first cycle share its result.
func (s *Service) LatestOrRefresh(ctx context.Context) (*model.Snapshot, error) {
	if snap := s.Latest(); snap != nil {
		return snap, nil
	}
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	if snap := s.Latest(); snap != nil {
		return snap, nil
	}
	return s.refresh(ctx)
}

// windowsOf returns the distinct windows of the request set in request order.
func windowsOf(pairs []model.Pair) []model.WindowSize {
	seen := make(map[model.WindowSize]bool)
	var out []model.WindowSize
	for _, p := range pairs {
		if !seen[p.Window] {
			seen[p.Window] = true
			out = append(out, p.Window)
		}
	}
	return out
}

func failuresOf(errs []error) []model.Failure {
	out := make([]model.Failure, 0, len(errs))
	for _, err := range errs {
		f := model.Failure{Reason: err.Error(), Empty: matrix.IsEmptySeries(err)}
		var pe matrix.PairError
		if errors.As(err, &pe) {
			p := pe.Pair()
			f.Instrument, f.Window = p.Instrument, p.Window
		}
		out = append(out, f)
	}
	return out
}
