// internal/verify/recorder.go
package verify

import "time"

// Recorder receives core events for metrics
type Recorder interface {
	AdapterDone(source Source, outcome string, duration time.Duration)
	Decision(decision Decision)
	CacheLookup(hit bool)
	QueueDepth(depth int)
	SessionActive(active bool)
	RequestDone(outcome string, duration time.Duration)
}

// NopRecorder discards all events
type NopRecorder struct{}

func (NopRecorder) AdapterDone(Source, string, time.Duration) {}
func (NopRecorder) Decision(Decision)                         {}
func (NopRecorder) CacheLookup(bool)                          {}
func (NopRecorder) QueueDepth(int)                            {}
func (NopRecorder) SessionActive(bool)                        {}
func (NopRecorder) RequestDone(string, time.Duration)         {}
