package zmodem

import "time"

// TurnReporter reports transfer progress straight off the session
// state. Callers invoke Tick after each Send or Receive turn; the
// reporter reads Count, FileSize, and FileName from the State itself,
// so a receive session needs no separate start call for metadata that
// only arrives mid-session with ZFILE. Counts are monotonic within a
// file, which makes the transfer rate fall out of the per-turn delta.
//
// The step model is single-threaded, so the reporter carries no lock.
type TurnReporter struct {
	state          *State
	callback       func(name string, transferred, total int64, rate float64)
	updateInterval time.Duration

	startTime  time.Time
	lastUpdate time.Time
	lastCount  uint32
}

// NewTurnReporter creates a reporter for the given session. The
// callback fires at most once per interval, and once more from Done.
func NewTurnReporter(state *State, callback func(string, int64, int64, float64), interval time.Duration) *TurnReporter {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	now := time.Now()
	return &TurnReporter{
		state:          state,
		callback:       callback,
		updateInterval: interval,
		startTime:      now,
		lastUpdate:     now,
	}
}

// Tick reports progress after a turn if enough time has passed since
// the previous report.
func (r *TurnReporter) Tick() {
	now := time.Now()
	if now.Sub(r.lastUpdate) < r.updateInterval {
		return
	}

	count := r.state.Count()
	elapsed := now.Sub(r.lastUpdate).Seconds()
	var rate float64
	if elapsed > 0 && count >= r.lastCount {
		rate = float64(count-r.lastCount) / elapsed
	}

	if r.callback != nil {
		r.callback(r.state.FileName(), int64(count), int64(r.state.FileSize()), rate)
	}

	r.lastUpdate = now
	r.lastCount = count
}

// Done emits a final report and returns the session duration.
func (r *TurnReporter) Done() time.Duration {
	if r.callback != nil {
		r.callback(r.state.FileName(), int64(r.state.Count()), int64(r.state.FileSize()), 0)
	}
	return time.Since(r.startTime)
}
