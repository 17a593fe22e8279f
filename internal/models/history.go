package models

import "time"

// MaxHistoryWeeks caps the archive at roughly one year
const MaxHistoryWeeks = 52

// HistoryEntry is a frozen copy of a week plus the time it was archived
type HistoryEntry struct {
	WeekData
	SavedAt int64 `json:"savedAt"`
}

// ArchivedAt returns SavedAt as a time
func (h HistoryEntry) ArchivedAt() time.Time {
	return time.UnixMilli(h.SavedAt)
}

// History is the archive of past weeks, newest first
type History []HistoryEntry

// Archive prepends a copy of week. When the archive grows past MaxHistoryWeeks
// the oldest entry is dropped and returned.
func (h *History) Archive(week *WeekData, savedAt time.Time) (evicted *HistoryEntry) {
	entry := HistoryEntry{WeekData: *week, SavedAt: savedAt.UnixMilli()}
	next := make(History, 0, len(*h)+1)
	next = append(next, entry)
	next = append(next, (*h)...)
	if len(next) > MaxHistoryWeeks {
		last := next[len(next)-1]
		evicted = &last
		next = next[:MaxHistoryWeeks]
	}
	*h = next
	return evicted
}

// Latest returns the most recently archived week
func (h History) Latest() (HistoryEntry, bool) {
	if len(h) == 0 {
		return HistoryEntry{}, false
	}
	return h[0], true
}

// Trim drops the oldest entries beyond MaxHistoryWeeks
func (h History) Trim() History {
	if len(h) > MaxHistoryWeeks {
		return h[:MaxHistoryWeeks]
	}
	return h
}
