package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"fintrack/internal/logging"
)

// Document keys
const (
	KeyWeekData  = "fintrack_weekData"
	KeyExtras    = "fintrack_extras"
	KeyHistory   = "fintrack_history"
	KeySettings  = "fintrack_settings"
	KeyLastSaved = "fintrack_lastSaved"
)

// AllKeys lists every key the tracker owns
func AllKeys() []string {
	return []string{KeyWeekData, KeyExtras, KeyHistory, KeySettings, KeyLastSaved}
}

// ParseError reports a stored document that does not decode. It matches ErrCorrupt.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("document %s is corrupt: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrCorrupt }

// Store reads and writes JSON documents through a Backend
type Store struct {
	backend Backend
	now     func() time.Time
	log     logrus.FieldLogger
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for the last-saved marker
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) { s.log = l }
}

// New wraps backend
func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		now:     time.Now,
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.Component(s.log, "storage")
	return s
}

// Backend returns the underlying backend
func (s *Store) Backend() Backend {
	return s.backend
}

// Read decodes the document under key into v.
// It returns ErrNotFound when the key is absent and a *ParseError when the bytes do not decode.
func (s *Store) Read(key string, v any) error {
	data, err := s.backend.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &ParseError{Key: key, Err: err}
	}
	return nil
}

// Write encodes v as the document under key.
// Writing week data or extras also refreshes the last-saved marker.
func (s *Store) Write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.backend.Put(key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	s.log.WithFields(logrus.Fields{"key": key, "bytes": len(data)}).Debug("document written")

	if key == KeyWeekData || key == KeyExtras {
		return s.Touch()
	}
	return nil
}

// Remove deletes the given keys; missing keys are ignored
func (s *Store) Remove(keys ...string) error {
	for _, key := range keys {
		if err := s.backend.Delete(key); err != nil {
			return fmt.Errorf("remove %s: %w", key, err)
		}
	}
	s.log.WithField("keys", keys).Debug("documents removed")
	return nil
}

// Touch records now as the last-saved time
func (s *Store) Touch() error {
	stamp := strconv.FormatInt(s.now().UnixMilli(), 10)
	if err := s.backend.Put(KeyLastSaved, []byte(stamp)); err != nil {
		return fmt.Errorf("write %s: %w", KeyLastSaved, err)
	}
	return nil
}

// LastSaved returns the last-saved time, or ErrNotFound if nothing was saved
func (s *Store) LastSaved() (time.Time, error) {
	var millis int64
	if err := s.Read(KeyLastSaved, &millis); err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(millis), nil
}

// Snapshot returns the raw bytes of every stored document
func (s *Store) Snapshot() (map[string][]byte, error) {
	keys, err := s.backend.Keys()
	if err != nil {
		return nil, err
	}
	docs := make(map[string][]byte, len(keys))
	for _, k := range keys {
		data, err := s.backend.Get(k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		docs[k] = data
	}
	return docs, nil
}
