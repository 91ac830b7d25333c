package game

import "time"

// MetricsHook lets an external observability layer (the transport package,
// in this repo) subscribe to counters and timings the simulation core
// produces but has no business reporting anywhere itself. A nil hook is
// always safe: every call site guards against it before dispatching.
type MetricsHook interface {
	RecordTick(d time.Duration)
	RecordCapture()
	RecordKill(cause string)
	RecordVictory()
	RecordEventLogStats(total, dropped uint64)
}

// SetMetricsHook wires h into the room and its capture/collision engines.
// Passing nil disables reporting (the default).
func (r *Room) SetMetricsHook(h MetricsHook) {
	r.metrics = h
	r.capture.metrics = h
	r.collision.metrics = h
}
