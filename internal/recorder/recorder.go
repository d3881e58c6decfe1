package recorder

import "PercentileBoard/internal/model"

// Recorder persists the history of refresh cycles for later analysis.
// The board never reads it back; every cycle starts from the remote service.
type Recorder interface {
	RecordSnapshot(snap *model.Snapshot) error
	Close() error
}
