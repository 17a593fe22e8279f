// Package tracker is the application layer. It loads ledgers through the
// store, applies defaults for missing or unreadable documents and persists
// every change immediately.
package tracker

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/services/report"
	"fintrack/internal/services/storage"
)

// DefaultUnsavedWindow is how long after a save HasUnsavedChanges keeps reporting true
const DefaultUnsavedWindow = 5 * time.Minute

// Tracker owns the week, extras, history and settings documents
type Tracker struct {
	store         *storage.Store
	now           func() time.Time
	log           logrus.FieldLogger
	unsavedWindow time.Duration
	quota         uint64
}

// Option configures a Tracker
type Option func(*Tracker)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(t *Tracker) { t.log = l }
}

// WithUnsavedWindow sets the window used by HasUnsavedChanges
func WithUnsavedWindow(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.unsavedWindow = d
		}
	}
}

// WithQuota sets the byte budget StorageInfo reports against
func WithQuota(bytes uint64) Option {
	return func(t *Tracker) {
		if bytes > 0 {
			t.quota = bytes
		}
	}
}

// New creates a tracker over store
func New(store *storage.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:         store,
		now:           time.Now,
		log:           logrus.StandardLogger(),
		unsavedWindow: DefaultUnsavedWindow,
		quota:         storage.DefaultQuota,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.log = logging.Component(t.log, "tracker")
	return t
}

// Now returns the tracker's current time
func (t *Tracker) Now() time.Time {
	return t.now()
}

// load reads key into v. It reports false when the document is absent or
// corrupt, in which case the caller substitutes a default.
func (t *Tracker) load(key string, v any) (bool, error) {
	err := t.store.Read(key, v)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	case errors.Is(err, storage.ErrCorrupt):
		t.log.WithError(err).WithField("key", key).Warn("ignoring corrupt document, using defaults")
		return false, nil
	default:
		return false, fmt.Errorf("load %s: %w", key, err)
	}
}

// Week returns the current week, or an empty one stamped now. A stored week
// that fails validation is replaced by the empty one.
func (t *Tracker) Week() (*models.WeekData, error) {
	var rec models.WeekRecord
	ok, err := t.load(storage.KeyWeekData, &rec)
	if err != nil {
		return nil, err
	}
	if !ok {
		return models.NewWeekData(t.now()), nil
	}
	week, err := rec.Week()
	if err != nil {
		t.log.WithError(err).WithField("key", storage.KeyWeekData).Warn("stored week is invalid, using defaults")
		return models.NewWeekData(t.now()), nil
	}
	return week, nil
}

// Extras returns the extra expenses, or an empty ledger
func (t *Tracker) Extras() (models.Extras, error) {
	var extras models.Extras
	ok, err := t.load(storage.KeyExtras, &extras)
	if err != nil {
		return nil, err
	}
	if !ok || extras == nil {
		return models.NewExtras(), nil
	}
	if err := extras.Validate(); err != nil {
		t.log.WithError(err).WithField("key", storage.KeyExtras).Warn("stored extras are invalid, using defaults")
		return models.NewExtras(), nil
	}
	return extras.Normalize(), nil
}

// History returns the archived weeks, newest first
func (t *Tracker) History() (models.History, error) {
	var history models.History
	ok, err := t.load(storage.KeyHistory, &history)
	if err != nil {
		return nil, err
	}
	if !ok || history == nil {
		return models.History{}, nil
	}
	return history.Trim(), nil
}

// Settings returns the stored preferences. Missing fields take their defaults.
func (t *Tracker) Settings() (models.Settings, error) {
	settings := models.DefaultSettings()
	ok, err := t.load(storage.KeySettings, &settings)
	if err != nil {
		return models.Settings{}, err
	}
	if !ok {
		return models.DefaultSettings(), nil
	}
	if err := settings.Validate(); err != nil {
		t.log.WithError(err).Warn("stored settings are invalid, using defaults")
		return models.DefaultSettings(), nil
	}
	return settings, nil
}

func (t *Tracker) saveWeek(week *models.WeekData) error {
	week.Stamp(t.now())
	return t.store.Write(storage.KeyWeekData, week)
}

// AddIncome accumulates amount into day and returns the day's new income
func (t *Tracker) AddIncome(day models.Day, amount float64) (float64, error) {
	return t.addToWeek(day, amount, "income", (*models.WeekData).AddIncome)
}

// AddExpense accumulates amount into day and returns the day's new expense
func (t *Tracker) AddExpense(day models.Day, amount float64) (float64, error) {
	return t.addToWeek(day, amount, "expense", (*models.WeekData).AddExpense)
}

func (t *Tracker) addToWeek(day models.Day, amount float64, kind string,
	add func(*models.WeekData, models.Day, float64) (float64, error)) (float64, error) {
	week, err := t.Week()
	if err != nil {
		return 0, err
	}
	total, err := add(week, day, amount)
	if err != nil {
		return 0, err
	}
	if err := t.saveWeek(week); err != nil {
		return 0, err
	}
	t.log.WithFields(logrus.Fields{
		"kind":   kind,
		"day":    day.String(),
		"amount": amount,
		"total":  total,
	}).Debug("entry recorded")
	return total, nil
}

// AddExtra records an extra expense and returns the reason's new amount
func (t *Tracker) AddExtra(reason string, amount float64) (float64, error) {
	extras, err := t.Extras()
	if err != nil {
		return 0, err
	}
	total, err := extras.Add(reason, amount)
	if err != nil {
		return 0, err
	}
	if err := t.store.Write(storage.KeyExtras, extras); err != nil {
		return 0, err
	}
	t.log.WithFields(logrus.Fields{"reason": reason, "amount": amount, "total": total}).Debug("extra recorded")
	return total, nil
}

// DeleteExtra removes reason. It reports false, without writing, when reason is absent.
func (t *Tracker) DeleteExtra(reason string) (bool, error) {
	extras, err := t.Extras()
	if err != nil {
		return false, err
	}
	if !extras.Delete(reason) {
		return false, nil
	}
	if err := t.store.Write(storage.KeyExtras, extras); err != nil {
		return false, err
	}
	return true, nil
}

// SaveSettings validates and stores s
func (t *Tracker) SaveSettings(s models.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	return t.store.Write(storage.KeySettings, s)
}

// Summary builds the report for the current week
func (t *Tracker) Summary() (*models.WeekSummary, error) {
	week, err := t.Week()
	if err != nil {
		return nil, err
	}
	extras, err := t.Extras()
	if err != nil {
		return nil, err
	}
	return report.BuildSummary(week, extras), nil
}

// Comparison compares the current week with the most recently archived one.
// Archived weeks carry no extras.
func (t *Tracker) Comparison() (*models.WeekComparison, error) {
	current, err := t.Summary()
	if err != nil {
		return nil, err
	}
	history, err := t.History()
	if err != nil {
		return nil, err
	}
	latest, ok := history.Latest()
	if !ok {
		return report.Compare(current, nil), nil
	}
	return report.Compare(current, report.BuildSummary(&latest.WeekData, nil)), nil
}

// ArchiveWeek copies the current week to the front of the history
func (t *Tracker) ArchiveWeek() (models.HistoryEntry, error) {
	week, err := t.Week()
	if err != nil {
		return models.HistoryEntry{}, err
	}
	history, err := t.History()
	if err != nil {
		return models.HistoryEntry{}, err
	}

	evicted := history.Archive(week, t.now())
	if err := t.store.Write(storage.KeyHistory, history); err != nil {
		return models.HistoryEntry{}, err
	}

	entry := history[0]
	log := t.log.WithFields(logrus.Fields{"savedAt": entry.SavedAt, "weeks": len(history)})
	if evicted != nil {
		log = log.WithField("evictedSavedAt", evicted.SavedAt)
	}
	log.Info("week archived")
	return entry, nil
}

// EndWeek archives the week, then clears it. It returns the final summary.
func (t *Tracker) EndWeek() (*models.WeekSummary, error) {
	if _, err := t.ArchiveWeek(); err != nil {
		return nil, fmt.Errorf("archive week: %w", err)
	}
	summary, err := t.Summary()
	if err != nil {
		return nil, err
	}
	if err := t.Clear(); err != nil {
		return nil, fmt.Errorf("clear week: %w", err)
	}
	return summary, nil
}

// Clear removes the week, extras and last-saved marker. History and settings survive.
func (t *Tracker) Clear() error {
	if err := t.store.Remove(storage.KeyWeekData, storage.KeyExtras, storage.KeyLastSaved); err != nil {
		return err
	}
	t.log.Info("week cleared")
	return nil
}

// Reset removes every document
func (t *Tracker) Reset() error {
	if err := t.store.Remove(storage.AllKeys()...); err != nil {
		return err
	}
	t.log.Info("all data reset")
	return nil
}

// LastSaved returns the time of the last week or extras write.
// ok is false when nothing has been saved.
func (t *Tracker) LastSaved() (saved time.Time, ok bool, err error) {
	saved, err = t.store.LastSaved()
	switch {
	case err == nil:
		return saved, true, nil
	case errors.Is(err, storage.ErrNotFound):
		return time.Time{}, false, nil
	case errors.Is(err, storage.ErrCorrupt):
		t.log.WithError(err).Warn("ignoring corrupt last-saved marker")
		return time.Time{}, false, nil
	default:
		return time.Time{}, false, err
	}
}

// HasUnsavedChanges reports whether the last save happened within the unsaved window
func (t *Tracker) HasUnsavedChanges() (bool, error) {
	saved, ok, err := t.LastSaved()
	if err != nil || !ok {
		return false, err
	}
	return t.now().Sub(saved) < t.unsavedWindow, nil
}

// StorageInfo reports how much of the storage quota is used
func (t *Tracker) StorageInfo() (storage.Usage, error) {
	return t.store.Usage(t.quota)
}

// ReplaceWeek stores week as the current week. A zero WeekStart is stamped now;
// otherwise the imported WeekStart is kept, making this the only write that
// does not restamp the week.
func (t *Tracker) ReplaceWeek(week *models.WeekData) error {
	if week.WeekStart == 0 {
		week.Stamp(t.now())
	}
	return t.store.Write(storage.KeyWeekData, week)
}

// ReplaceExtras stores extras as the current extras ledger
func (t *Tracker) ReplaceExtras(extras models.Extras) error {
	if extras == nil {
		extras = models.NewExtras()
	}
	return t.store.Write(storage.KeyExtras, extras)
}

// ReplaceHistory stores history, keeping at most the newest MaxHistoryWeeks entries
func (t *Tracker) ReplaceHistory(history models.History) error {
	if history == nil {
		history = models.History{}
	}
	return t.store.Write(storage.KeyHistory, history.Trim())
}
