package matrix

import (
	"math"

	"PercentileBoard/internal/model"
)

type rowKey struct {
	instrument model.Instrument
	date       string
}

// Pivot groups observations into one row per (instrument, date), with one
// column per window holding the value rounded half away from zero and
// clamped to ±cellLimit.
//
// Rows appear in the order their key first occurs in the input. Windows of the
// same instrument that report different latest dates land in separate rows.
// A repeated window within a row is overwritten by the later observation.
func Pivot(observations []model.Observation) []model.PivotRow {
	index := make(map[rowKey]int, len(observations))
	rows := make([]model.PivotRow, 0, len(observations))

	for _, obs := range observations {
		key := rowKey{instrument: obs.Instrument, date: obs.Date}
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, model.PivotRow{
				Instrument: obs.Instrument,
				Date:       obs.Date,
				Values:     make(map[model.WindowSize]int),
			})
		}
		rows[i].Values[obs.Window] = roundCell(obs.Value)
	}
	return rows
}

// cellLimit bounds rounded values so the int conversion is defined on every
// platform. Values past it keep their sign and bucket.
const cellLimit = math.MaxInt32

func roundCell(v float64) int {
	r := math.Round(v)
	switch {
	case r > cellLimit:
		return cellLimit
	case r < -cellLimit:
		return -cellLimit
	}
	return int(r)
}
