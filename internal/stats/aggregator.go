package stats

import (
	"math"
	"sync"
	"time"

	"github.com/fluentwork/coach/internal/domain"
)

// MinutesPerEntry is the flat estimate of time spent per history entry.
// It is an approximation, not a measurement.
const MinutesPerEntry = 10

// SessionStats are the figures derived from a user's history.
type SessionStats struct {
	TotalDaysPracticed int `json:"totalDaysPracticed"`
	// Mistakes holds distinct incorrect inputs in order of first occurrence.
	Mistakes       []string `json:"mistakes"`
	EntryCount     int      `json:"entryCount"`
	ElapsedMinutes int      `json:"elapsedMinutes"`
}

// RecentMistakes returns up to n of the most recently first-seen mistakes.
func (s SessionStats) RecentMistakes(n int) []string {
	if n <= 0 || len(s.Mistakes) == 0 {
		return nil
	}
	if n > len(s.Mistakes) {
		n = len(s.Mistakes)
	}
	return append([]string(nil), s.Mistakes[len(s.Mistakes)-n:]...)
}

// Fold computes statistics from the full history. Days are counted as
// distinct UTC dates regardless of entry order.
func Fold(history []domain.HistoryEntry) SessionStats {
	days := make(map[time.Time]struct{})
	m := newMistakeSet()
	for _, h := range history {
		days[h.Day()] = struct{}{}
		m.add(h)
	}
	return SessionStats{
		TotalDaysPracticed: len(days),
		Mistakes:           m.list(),
		EntryCount:         len(history),
		ElapsedMinutes:     len(history) * MinutesPerEntry,
	}
}

// Aggregator maintains SessionStats incrementally. It is safe for
// concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	days     int
	entries  int
	lastDay  time.Time
	hasLast  bool
	mistakes *mistakeSet
}

// NewAggregator returns an Aggregator seeded from history.
func NewAggregator(history []domain.HistoryEntry) *Aggregator {
	a := &Aggregator{}
	a.Reset(history)
	return a
}

// Reset discards running totals and recomputes them from history.
func (a *Aggregator) Reset(history []domain.HistoryEntry) SessionStats {
	full := Fold(history)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.days = full.TotalDaysPracticed
	a.entries = full.EntryCount
	a.mistakes = newMistakeSet()
	for _, h := range history {
		a.mistakes.add(h)
	}
	a.hasLast = len(history) > 0
	if a.hasLast {
		a.lastDay = history[len(history)-1].Day()
	}
	return a.snapshotLocked()
}

// Append folds one new entry into the running totals. The day count grows
// only when the entry's date differs from the previous entry's date, so
// entries must arrive in chronological order.
func (a *Aggregator) Append(entry domain.HistoryEntry) SessionStats {
	a.mu.Lock()
	defer a.mu.Unlock()

	day := entry.Day()
	if !a.hasLast || !day.Equal(a.lastDay) {
		a.days++
	}
	a.lastDay = day
	a.hasLast = true
	a.entries++
	a.mistakes.add(entry)
	return a.snapshotLocked()
}

// Stats returns the current totals.
func (a *Aggregator) Stats() SessionStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Aggregator) snapshotLocked() SessionStats {
	return SessionStats{
		TotalDaysPracticed: a.days,
		Mistakes:           a.mistakes.list(),
		EntryCount:         a.entries,
		ElapsedMinutes:     a.entries * MinutesPerEntry,
	}
}

// mistakeSet is an insertion-ordered set of strings.
type mistakeSet struct {
	seen  map[string]struct{}
	order []string
}

func newMistakeSet() *mistakeSet {
	return &mistakeSet{seen: make(map[string]struct{})}
}

func (m *mistakeSet) add(h domain.HistoryEntry) {
	if !h.IsMistake() || h.Details.UserInput == "" {
		return
	}
	if _, ok := m.seen[h.Details.UserInput]; ok {
		return
	}
	m.seen[h.Details.UserInput] = struct{}{}
	m.order = append(m.order, h.Details.UserInput)
}

func (m *mistakeSet) list() []string {
	return append([]string{}, m.order...)
}

// ProgressSummary describes vocabulary mastery across a catalog.
type ProgressSummary struct {
	TotalWords        int `json:"totalWords"`
	LearnedWords      int `json:"learnedWords"`
	InProgressWords   int `json:"inProgressWords"`
	MasteryPercentage int `json:"masteryPercentage"`
}

// Summarize computes mastery figures for a catalog of totalWords items.
// Items without a progress record count as mastery zero.
func Summarize(records []domain.ProgressRecord, totalWords int) ProgressSummary {
	s := ProgressSummary{TotalWords: totalWords}
	totalMastery := 0
	for _, r := range records {
		totalMastery += r.MasteryLevel
		switch {
		case r.Learned:
			s.LearnedWords++
		case r.MasteryLevel > 0:
			s.InProgressWords++
		}
	}
	denominator := totalWords
	if denominator < 1 {
		denominator = 1
	}
	s.MasteryPercentage = int(math.Round(float64(totalMastery) / float64(denominator*domain.MaxMasteryLevel) * 100))
	return s
}
