package store

import (
	"sync/atomic"

	"CoinLens/internal/model"
)

// SeriesStore holds the series of the active symbol. The slot is replaced
// wholesale; readers never observe a partially updated series.
type SeriesStore struct {
	current atomic.Pointer[model.Series]
}

// New returns an empty store.
func New() *SeriesStore {
	return &SeriesStore{}
}

// Replace swaps in a new series. A nil series is ignored.
func (s *SeriesStore) Replace(series *model.Series) {
	if series == nil {
		return
	}
	s.current.Store(series)
}

// Current returns the loaded series and false before the first successful load.
func (s *SeriesStore) Current() (*model.Series, bool) {
	series := s.current.Load()
	return series, series != nil
}
