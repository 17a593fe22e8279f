package storage

import (
	"testing"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doc struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func fixedClock(ms int64) func() time.Time {
	return func() time.Time { return time.UnixMilli(ms) }
}

func TestStoreReadWrite(t *testing.T) {
	s := New(NewMemoryBackend())

	var got doc
	assert.ErrorIs(t, s.Read(KeySettings, &got), ErrNotFound)

	require.NoError(t, s.Write(KeySettings, doc{Name: "a", Value: 1.5}))
	require.NoError(t, s.Read(KeySettings, &got))
	assert.Equal(t, doc{Name: "a", Value: 1.5}, got)
}

func TestStoreReadCorruptDocument(t *testing.T) {
	backend := NewMemoryBackend()
	require.NoError(t, backend.Put(KeyWeekData, []byte(`{not json`)))
	s := New(backend)

	var got doc
	err := s.Read(KeyWeekData, &got)
	assert.ErrorIs(t, err, ErrCorrupt)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, KeyWeekData, perr.Key)
}

func TestWriteTouchesLastSavedForLedgerKeys(t *testing.T) {
	s := New(NewMemoryBackend(), WithClock(fixedClock(42_000)))

	require.NoError(t, s.Write(KeySettings, doc{}))
	_, err := s.LastSaved()
	assert.ErrorIs(t, err, ErrNotFound, "settings writes do not touch lastSaved")

	require.NoError(t, s.Write(KeyHistory, []doc{}))
	_, err = s.LastSaved()
	assert.ErrorIs(t, err, ErrNotFound, "history writes do not touch lastSaved")

	require.NoError(t, s.Write(KeyExtras, map[string]float64{}))
	saved, err := s.LastSaved()
	require.NoError(t, err)
	assert.Equal(t, int64(42_000), saved.UnixMilli())

	s.now = fixedClock(99_000)
	require.NoError(t, s.Write(KeyWeekData, doc{}))
	saved, err = s.LastSaved()
	require.NoError(t, err)
	assert.Equal(t, int64(99_000), saved.UnixMilli())
}

func TestRemoveAndSnapshot(t *testing.T) {
	s := New(NewMemoryBackend())
	require.NoError(t, s.Write(KeyWeekData, doc{Name: "w"}))
	require.NoError(t, s.Write(KeyHistory, []doc{}))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Len(t, snap, 3) // week, history, lastSaved

	require.NoError(t, s.Remove(KeyWeekData, KeyLastSaved, KeyExtras))
	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{KeyHistory: []byte(`[]`)}, snap)
}

func TestUsage(t *testing.T) {
	s := New(NewMemoryBackend())
	require.NoError(t, s.Write(KeySettings, map[string]string{"a": "b"}))

	u, err := s.Usage(DefaultQuota)
	require.NoError(t, err)
	assert.Equal(t, 1, u.Documents)
	assert.Equal(t, uint64(len(KeySettings)+len(`{"a":"b"}`)), u.Used)
	assert.Equal(t, DefaultQuota-u.Used, u.Available())
	assert.Equal(t, humanize.IBytes(u.Used), u.UsedHuman())

	full := Usage{Used: 10, Quota: 5}
	assert.Equal(t, uint64(0), full.Available())
}
