package model

import "strconv"

// Instrument is a tradable symbol tracked by the board.
type Instrument string

// WindowSize is the number of trading days behind a moving average.
type WindowSize int

func (w WindowSize) String() string { return strconv.Itoa(int(w)) }

// Pair identifies one remote request: a single instrument at a single window.
type Pair struct {
	Instrument Instrument
	Window     WindowSize
}

// Point is one dated percentile value.
type Point struct {
	Date  string
	Value float64
}

// Series is the percentile history for one pair, oldest point first.
type Series struct {
	Instrument Instrument
	Window     WindowSize
	Points     []Point
}

// Observation is the latest point of a series, tagged with its origin.
type Observation struct {
	Instrument Instrument
	Window     WindowSize
	Date       string
	Value      float64
}

// Pair returns the request key the observation was produced for.
func (o Observation) Pair() Pair {
	return Pair{Instrument: o.Instrument, Window: o.Window}
}
