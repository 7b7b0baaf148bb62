package recorder

import (
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	r, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "coinlens.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSQLiteRecorder_RecordAndList(t *testing.T) {
	r := openTestRecorder(t)
	start := time.Date(2020, 4, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordFetch(&FetchEvent{
		RequestID: "a", Seq: 1, Symbol: "BTC-USD", Provider: "yahoo",
		Start: start, End: end, Bars: 1400, Outcome: OutcomeOK, Duration: 1500 * time.Millisecond,
	}))
	require.NoError(t, r.RecordFetch(&FetchEvent{
		RequestID: "b", Seq: 2, Symbol: "ETH-USD", Provider: "yahoo",
		Start: start, End: end, Outcome: OutcomeFailed, ErrorKind: "TIMEOUT", Error: "deadline exceeded",
	}))
	require.NoError(t, r.RecordFetch(&FetchEvent{
		RequestID: "c", Seq: 3, Symbol: "XRP-USD", Start: start, End: end, Outcome: OutcomeStale,
	}))

	events, err := r.RecentFetches(2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "c", events[0].RequestID)
	assert.Equal(t, OutcomeStale, events[0].Outcome)
	assert.Equal(t, uint64(2), events[1].Seq)
	assert.Equal(t, "TIMEOUT", events[1].ErrorKind)
	assert.Equal(t, start, events[1].Start)

	all, err := r.RecentFetches(0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 1400, all[2].Bars)
	assert.Equal(t, 1500*time.Millisecond, all[2].Duration)
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordFetch(&FetchEvent{}))
	events, err := r.RecentFetches(5)
	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, r.Close())
}
