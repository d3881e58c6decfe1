package collector

import (
	"context"
	"sync"
	"time"

	"PercentileBoard/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// Pairs listed in Errors fail, pairs in Series return that series, and all
// other pairs get a generated ascending series of Days points.
type MockFetcher struct {
	Series map[model.Pair]*model.Series
	Errors map[model.Pair]error
	Days   int
	End    time.Time

	mu    sync.Mutex
	calls map[model.Pair]int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchSeries(ctx context.Context, inst model.Instrument, window model.WindowSize) (*model.Series, error) {
	p := model.Pair{Instrument: inst, Window: window}
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[model.Pair]int)
	}
	m.calls[p]++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.Errors[p]; ok {
		return nil, err
	}
	if s, ok := m.Series[p]; ok {
		return s, nil
	}
	return generateMockSeries(inst, window, m.Days, m.End), nil
}

// Calls returns how many times the pair was requested.
func (m *MockFetcher) Calls(p model.Pair) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[p]
}

// TotalCalls returns the number of requests across all pairs.
func (m *MockFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func generateMockSeries(inst model.Instrument, window model.WindowSize, days int, end time.Time) *model.Series {
	if days <= 0 {
		days = 30
	}
	if end.IsZero() {
		end = time.Now()
	}
	// Deterministic per pair so repeated runs render the same table.
	seed := len(inst)*7 + int(window)
	points := make([]model.Point, days)
	for i := 0; i < days; i++ {
		points[i] = model.Point{
			Date:  end.AddDate(0, 0, -(days - 1 - i)).Format("2006-01-02"),
			Value: float64((seed*13+i*17)%1000) / 10,
		}
	}
	return &model.Series{Instrument: inst, Window: window, Points: points}
}
