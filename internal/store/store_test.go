package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinLens/internal/model"
)

func TestSeriesStore_EmptyBeforeLoad(t *testing.T) {
	s := New()
	series, ok := s.Current()
	assert.False(t, ok)
	assert.Nil(t, series)
}

func TestSeriesStore_Replace(t *testing.T) {
	s := New()
	first := &model.Series{Symbol: "BTC-USD"}
	second := &model.Series{Symbol: "ETH-USD"}

	s.Replace(first)
	got, ok := s.Current()
	require.True(t, ok)
	assert.Same(t, first, got)

	s.Replace(second)
	got, _ = s.Current()
	assert.Same(t, second, got)

	s.Replace(nil)
	got, _ = s.Current()
	assert.Same(t, second, got, "nil replace keeps the previous series")
}

func TestSeriesStore_ConcurrentReaders(t *testing.T) {
	s := New()
	s.Replace(&model.Series{Symbol: "A"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				series, ok := s.Current()
				if assert.True(t, ok) {
					assert.Contains(t, []string{"A", "B"}, series.Symbol)
				}
			}
		}()
	}
	s.Replace(&model.Series{Symbol: "B"})
	wg.Wait()
}
