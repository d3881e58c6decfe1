package matrix

import "PercentileBoard/internal/model"

// ExtractLatest returns the chronologically last point of the series.
// Series are ordered oldest first, so this is always the final element.
func ExtractLatest(series *model.Series) (model.Observation, error) {
	if series == nil || len(series.Points) == 0 {
		var inst model.Instrument
		var window model.WindowSize
		if series != nil {
			inst, window = series.Instrument, series.Window
		}
		return model.Observation{}, &EmptySeriesError{Instrument: inst, Window: window}
	}
	last := series.Points[len(series.Points)-1]
	return model.Observation{
		Instrument: series.Instrument,
		Window:     series.Window,
		Date:       last.Date,
		Value:      last.Value,
	}, nil
}
