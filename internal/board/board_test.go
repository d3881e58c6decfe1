package board

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PercentileBoard/internal/collector"
	"PercentileBoard/internal/matrix"
	"PercentileBoard/internal/metrics"
	"PercentileBoard/internal/model"
)

type memRecorder struct {
	mu    sync.Mutex
	snaps []*model.Snapshot
	err   error
}

func (r *memRecorder) RecordSnapshot(s *model.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
	return r.err
}

func (r *memRecorder) Close() error { return nil }

func newService(f collector.Fetcher, rec *memRecorder, insts []model.Instrument, wins []model.WindowSize) *Service {
	orch := matrix.NewOrchestrator(f, matrix.Options{}, zerolog.Nop())
	return NewService(orch, insts, wins, rec, metrics.New(), zerolog.Nop())
}

func TestRefresh_PartialFailure(t *testing.T) {
	failing := model.Pair{Instrument: "QQQ", Window: 50}
	f := &collector.MockFetcher{Days: 3, Errors: map[model.Pair]error{failing: errors.New("timeout")}}
	rec := &memRecorder{}
	svc := newService(f, rec, []model.Instrument{"SPY", "QQQ"}, []model.WindowSize{20, 50})

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 4, snap.Requested)
	assert.Equal(t, []model.WindowSize{20, 50}, snap.Windows)
	assert.Len(t, snap.Rows, 2)
	require.Len(t, snap.Failures, 1)
	assert.Equal(t, model.Instrument("QQQ"), snap.Failures[0].Instrument)
	assert.Equal(t, model.WindowSize(50), snap.Failures[0].Window)
	assert.False(t, snap.Failures[0].Empty)

	assert.Same(t, snap, svc.Latest())
	require.Len(t, rec.snaps, 1)
	assert.Same(t, snap, rec.snaps[0])
}

func TestRefresh_TotalFailureKeepsLatest(t *testing.T) {
	f := &collector.MockFetcher{Days: 3}
	svc := newService(f, &memRecorder{}, []model.Instrument{"SPY"}, []model.WindowSize{20})

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	f.Errors = map[model.Pair]error{{Instrument: "SPY", Window: 20}: errors.New("down")}
	snap, err := svc.Refresh(context.Background())

	var tf *matrix.TotalFailureError
	require.ErrorAs(t, err, &tf)
	assert.Equal(t, 1, tf.Requested)
	require.NotNil(t, snap)
	assert.Empty(t, snap.Rows)
	assert.Len(t, snap.Failures, 1)
	assert.Same(t, first, svc.Latest())
}

func TestRefresh_EmptySeriesFlagged(t *testing.T) {
	empty := model.Pair{Instrument: "TLT", Window: 200}
	f := &collector.MockFetcher{Series: map[model.Pair]*model.Series{
		empty: {Instrument: "TLT", Window: 200},
	}}
	svc := newService(f, &memRecorder{}, []model.Instrument{"TLT"}, []model.WindowSize{100, 200})

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Failures, 1)
	assert.True(t, snap.Failures[0].Empty)
}

func TestRefresh_RecorderErrorIsNotFatal(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	svc := newService(&collector.MockFetcher{Days: 2}, rec, []model.Instrument{"SPY"}, []model.WindowSize{20})

	snap, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, svc.Latest())
}

func TestLatestOrRefresh(t *testing.T) {
	f := &collector.MockFetcher{Days: 2}
	svc := newService(f, &memRecorder{}, []model.Instrument{"SPY"}, []model.WindowSize{20})
	assert.Nil(t, svc.Latest())

	snap, err := svc.LatestOrRefresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.TotalCalls())

	again, err := svc.LatestOrRefresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, again)
	assert.Equal(t, 1, f.TotalCalls())
}

func TestNewService_NilRecorder(t *testing.T) {
	orch := matrix.NewOrchestrator(&collector.MockFetcher{Days: 1}, matrix.Options{}, zerolog.Nop())
	svc := NewService(orch, []model.Instrument{"SPY"}, []model.WindowSize{20}, nil, nil, zerolog.Nop())

	_, err := svc.Refresh(context.Background())
	assert.NoError(t, err)
}

func TestLatestOrRefresh_ConcurrentCallersShareFirstCycle(t *testing.T) {
	f := &collector.MockFetcher{Days: 2}
	svc := newService(f, &memRecorder{}, []model.Instrument{"SPY"}, []model.WindowSize{20})

	var wg sync.WaitGroup
	snaps := make([]*model.Snapshot, 8)
	for i := range snaps {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := svc.LatestOrRefresh(context.Background())
			assert.NoError(t, err)
			snaps[i] = snap
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.TotalCalls())
	for _, snap := range snaps {
		assert.Same(t, snaps[0], snap)
	}
}
