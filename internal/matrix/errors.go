package matrix

import (
	"errors"
	"fmt"

	"PercentileBoard/internal/model"
)

// PairError is a failure attributable to a single (instrument, window) request.
type PairError interface {
	error
	Pair() model.Pair
}

// FetchError reports that the remote call for a pair failed: transport error,
// non-success status, malformed payload or timeout.
type FetchError struct {
	Instrument model.Instrument
	Window     model.WindowSize
	Cause      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s/%d: %v", e.Instrument, e.Window, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

func (e *FetchError) Pair() model.Pair {
	return model.Pair{Instrument: e.Instrument, Window: e.Window}
}

// EmptySeriesError reports a successful call that returned no data points.
type EmptySeriesError struct {
	Instrument model.Instrument
	Window     model.WindowSize
}

func (e *EmptySeriesError) Error() string {
	return fmt.Sprintf("empty series for %s/%d", e.Instrument, e.Window)
}

func (e *EmptySeriesError) Pair() model.Pair {
	return model.Pair{Instrument: e.Instrument, Window: e.Window}
}

// TotalFailureError is raised by callers when every requested pair failed,
// meaning there is no data at all rather than a few missing cells.
type TotalFailureError struct {
	Requested int
	Failures  []error
}

func (e *TotalFailureError) Error() string {
	if len(e.Failures) == 0 {
		return fmt.Sprintf("all %d requests failed", e.Requested)
	}
	return fmt.Sprintf("all %d requests failed, first: %v", e.Requested, e.Failures[0])
}

// Unwrap exposes the individual failures to errors.Is / errors.As.
func (e *TotalFailureError) Unwrap() []error { return e.Failures }

// IsEmptySeries reports whether err is, or wraps, an EmptySeriesError.
func IsEmptySeries(err error) bool {
	var empty *EmptySeriesError
	return errors.As(err, &empty)
}
