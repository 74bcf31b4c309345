package mastery

import "github.com/fluentwork/coach/internal/domain"

// Params defines the schedule used by the mastery model.
type Params struct {
	// IntervalDays[level] is the gap in days after reaching that level.
	// It must have MaxLevel+1 entries.
	IntervalDays []int
	MaxLevel     int
}

// DefaultIntervalDays is the standard reinforcement schedule: level 0 is
// retried the same day, level 5 is revisited after a month.
var DefaultIntervalDays = []int{0, 1, 3, 7, 14, 30}

// NewDefaultParams returns the standard schedule.
func NewDefaultParams() *Params {
	return &Params{
		IntervalDays: append([]int(nil), DefaultIntervalDays...),
		MaxLevel:     domain.MaxMasteryLevel,
	}
}

// intervalFor returns the gap for level, clamping out-of-table levels to the
// nearest entry.
func (p *Params) intervalFor(level int) int {
	if level < 0 {
		level = 0
	}
	if level >= len(p.IntervalDays) {
		level = len(p.IntervalDays) - 1
	}
	return p.IntervalDays[level]
}
