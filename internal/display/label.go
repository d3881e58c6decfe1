package display

import (
	"fmt"

	"PercentileBoard/internal/model"
)

// DefaultLeverage lists the leveraged and inverse products on the default
// board with their daily multiplier.
var DefaultLeverage = map[model.Instrument]int{
	"SPXL": 3,
	"TQQQ": 3,
	"SOXL": 3,
	"TSLL": 2,
	"NVDL": 2,
	"CONL": 2,
}

// Labeler turns raw symbols into table labels.
type Labeler struct {
	Leverage map[model.Instrument]int
}

// NewLabeler creates a Labeler for the given leverage table. A nil table
// falls back to DefaultLeverage.
func NewLabeler(leverage map[model.Instrument]int) *Labeler {
	if leverage == nil {
		leverage = DefaultLeverage
	}
	return &Labeler{Leverage: leverage}
}

// Label returns the instrument symbol, annotated with its multiplier when it
// is in the leverage table, e.g. "SPXL (×3)".
func (l *Labeler) Label(inst model.Instrument) string {
	if m, ok := l.Leverage[inst]; ok {
		return fmt.Sprintf("%s (×%d)", inst, m)
	}
	return string(inst)
}
