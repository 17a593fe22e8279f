// Package transfer exports the tracker state as a single JSON bundle and
// imports such bundles back.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"fintrack/internal/logging"
	"fintrack/internal/models"
	"fintrack/internal/services/tracker"
)

// ErrMalformedInput is returned for a bundle that is not a JSON object or
// whose sections fail validation
var ErrMalformedInput = errors.New("malformed import data")

// Section names as they appear in a bundle
const (
	SectionWeekData = "weekData"
	SectionExtras   = "extras"
	SectionHistory  = "history"
	SectionSettings = "settings"
)

// Bundle is the export document
type Bundle struct {
	WeekData   *models.WeekData `json:"weekData"`
	Extras     models.Extras    `json:"extras"`
	History    models.History   `json:"history"`
	Settings   models.Settings  `json:"settings"`
	ExportedAt string           `json:"exportedAt"`
}

// Sections reports which parts of a bundle were present
type Sections struct {
	WeekData bool
	Extras   bool
	History  bool
	Settings bool
}

// Names lists the present sections in bundle order
func (s Sections) Names() []string {
	var names []string
	if s.WeekData {
		names = append(names, SectionWeekData)
	}
	if s.Extras {
		names = append(names, SectionExtras)
	}
	if s.History {
		names = append(names, SectionHistory)
	}
	if s.Settings {
		names = append(names, SectionSettings)
	}
	return names
}

// Empty reports whether no section was present
func (s Sections) Empty() bool {
	return len(s.Names()) == 0
}

func (s Sections) String() string {
	if s.Empty() {
		return "none"
	}
	return strings.Join(s.Names(), ", ")
}

// Service moves bundles in and out of a tracker
type Service struct {
	tracker *tracker.Tracker
	log     logrus.FieldLogger
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) { s.log = l }
}

// New creates a transfer service over tr
func New(tr *tracker.Tracker, opts ...Option) *Service {
	s := &Service{tracker: tr, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.Component(s.log, "transfer")
	return s
}

// Filename returns the conventional export file name for now
func Filename(now time.Time) string {
	return "financial-data-" + now.Format("2006-01-02") + ".json"
}

// Export serializes every section as indented JSON
func (s *Service) Export() ([]byte, error) {
	week, err := s.tracker.Week()
	if err != nil {
		return nil, err
	}
	extras, err := s.tracker.Extras()
	if err != nil {
		return nil, err
	}
	history, err := s.tracker.History()
	if err != nil {
		return nil, err
	}
	settings, err := s.tracker.Settings()
	if err != nil {
		return nil, err
	}

	bundle := Bundle{
		WeekData:   week,
		Extras:     extras,
		History:    history,
		Settings:   settings,
		ExportedAt: s.tracker.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	s.log.WithFields(logrus.Fields{"bytes": len(data), "weeks": len(history)}).Debug("bundle exported")
	return data, nil
}

// Import validates data completely, then writes each present section.
// Absent or null sections leave the stored documents untouched.
func (s *Service) Import(data []byte) (Sections, error) {
	p, err := parse(data)
	if err != nil {
		return Sections{}, err
	}

	if p.week != nil {
		if err := s.tracker.ReplaceWeek(p.week); err != nil {
			return Sections{}, fmt.Errorf("import %s: %w", SectionWeekData, err)
		}
	}
	if p.extras != nil {
		if err := s.tracker.ReplaceExtras(p.extras); err != nil {
			return Sections{}, fmt.Errorf("import %s: %w", SectionExtras, err)
		}
	}
	if p.history != nil {
		if err := s.tracker.ReplaceHistory(p.history); err != nil {
			return Sections{}, fmt.Errorf("import %s: %w", SectionHistory, err)
		}
	}
	if p.settings != nil {
		if err := s.tracker.SaveSettings(*p.settings); err != nil {
			return Sections{}, fmt.Errorf("import %s: %w", SectionSettings, err)
		}
	}

	s.log.WithField("sections", p.sections.Names()).Info("bundle imported")
	return p.sections, nil
}

// Validate runs the import checks without writing anything
func Validate(data []byte) (Sections, error) {
	p, err := parse(data)
	if err != nil {
		return Sections{}, err
	}
	return p.sections, nil
}

type parsed struct {
	sections Sections
	week     *models.WeekData
	extras   models.Extras
	history  models.History
	settings *models.Settings
}

func malformed(section string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformedInput, section, err)
}

func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func parse(data []byte) (*parsed, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: bundle must be a JSON object", ErrMalformedInput)
	}

	p := &parsed{}

	if raw := doc[SectionWeekData]; present(raw) {
		var rw models.WeekRecord
		if err := json.Unmarshal(raw, &rw); err != nil {
			return nil, malformed(SectionWeekData, err)
		}
		week, err := rw.Week()
		if err != nil {
			return nil, malformed(SectionWeekData, err)
		}
		p.week = week
		p.sections.WeekData = true
	}

	if raw := doc[SectionExtras]; present(raw) {
		var extras models.Extras
		if err := json.Unmarshal(raw, &extras); err != nil {
			return nil, malformed(SectionExtras, err)
		}
		if err := extras.Validate(); err != nil {
			return nil, malformed(SectionExtras, err)
		}
		p.extras = extras.Normalize()
		p.sections.Extras = true
	}

	if raw := doc[SectionHistory]; present(raw) {
		var weeks []models.WeekRecord
		if err := json.Unmarshal(raw, &weeks); err != nil {
			return nil, malformed(SectionHistory, err)
		}
		history := make(models.History, 0, len(weeks))
		for i, rw := range weeks {
			week, err := rw.Week()
			if err != nil {
				return nil, malformed(SectionHistory, fmt.Errorf("entry %d: %w", i, err))
			}
			history = append(history, models.HistoryEntry{WeekData: *week, SavedAt: rw.SavedAt})
		}
		p.history = history.Trim()
		p.sections.History = true
	}

	if raw := doc[SectionSettings]; present(raw) {
		settings := models.DefaultSettings()
		if err := json.Unmarshal(raw, &settings); err != nil {
			return nil, malformed(SectionSettings, err)
		}
		if err := settings.Validate(); err != nil {
			return nil, malformed(SectionSettings, err)
		}
		p.settings = &settings
		p.sections.Settings = true
	}

	return p, nil
}
