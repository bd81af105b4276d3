package collection

import "time"

// progressMeter decides once, after the first unit, whether a pass is slow
// enough to report progress: first unit latency times the unit count must
// exceed the threshold.
type progressMeter struct {
	now       func() time.Time
	threshold time.Duration
	total     int
	start     time.Time
	decided   bool
	active    bool
}

func newProgressMeter(now func() time.Time, threshold time.Duration, total int) *progressMeter {
	return &progressMeter{now: now, threshold: threshold, total: total, start: now()}
}

// step records one finished unit and reports whether progress is shown.
func (m *progressMeter) step() bool {
	if !m.decided {
		m.decided = true
		latency := m.now().Sub(m.start)
		m.active = latency*time.Duration(m.total) > m.threshold
	}
	return m.active
}
