package recorder

import "SignalSentinel/internal/model"

// Recorder persists evaluation history for later analysis.
type Recorder interface {
	RecordPass(report *model.PassReport) error
	Close() error
}
