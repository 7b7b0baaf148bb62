package recorder

import "time"

// Fetch outcomes.
const (
	OutcomeOK     = "OK"
	OutcomeFailed = "FAILED"
	OutcomeStale  = "STALE"
)

// FetchEvent describes one completed load, including superseded ones.
type FetchEvent struct {
	RequestID string        `json:"request_id"`
	Seq       uint64        `json:"seq"`
	Symbol    string        `json:"symbol"`
	Provider  string        `json:"provider"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Bars      int           `json:"bars"`
	Outcome   string        `json:"outcome"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration"`
	At        time.Time     `json:"at"`
}

// Recorder keeps an audit trail of fetches. It never stores bar data.
type Recorder interface {
	RecordFetch(evt *FetchEvent) error
	RecentFetches(limit int) ([]FetchEvent, error)
	Close() error
}
