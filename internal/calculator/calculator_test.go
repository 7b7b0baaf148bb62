package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinLens/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bars(closes ...float64) []model.OHLCV {
	out := make([]model.OHLCV, len(closes))
	start := day(2024, time.March, 1)
	for i, c := range closes {
		out[i] = model.OHLCV{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: int64(10 * (i + 1))}
	}
	return out
}

func TestCalculateSMA(t *testing.T) {
	avg, err := CalculateSMA([]float64{1, 2, 3, 4}, 2)
	require.NoError(t, err)
	assert.Equal(t, 3.5, avg)

	_, err = CalculateSMA([]float64{1}, 2)
	assert.Error(t, err)
	_, err = CalculateSMA([]float64{1}, 0)
	assert.Error(t, err)
}

func TestMovingAverage_Example(t *testing.T) {
	s := []model.OHLCV{
		{Date: day(2024, 5, 1), Close: 100, Volume: 10},
		{Date: day(2024, 5, 2), Close: 110, Volume: 20},
		{Date: day(2024, 5, 3), Close: 99, Volume: 5},
	}
	points, err := MovingAverage(s, 2)
	require.NoError(t, err)
	require.Len(t, points, 3)

	assert.False(t, points[0].Average.Valid)
	assert.InDelta(t, 105.0, points[1].Average.Float64, 1e-9)
	assert.InDelta(t, 104.5, points[2].Average.Float64, 1e-9)
	assert.Equal(t, 110.0, points[1].Close)
}

func TestMovingAverage_MatchesTrailingMean(t *testing.T) {
	s := bars(10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21)
	window := 5
	points, err := MovingAverage(s, window)
	require.NoError(t, err)

	for i, p := range points {
		if i < window-1 {
			assert.False(t, p.Average.Valid, "index %d", i)
			continue
		}
		sum := 0.0
		for j := i - window + 1; j <= i; j++ {
			sum += s[j].Close
		}
		assert.InDelta(t, sum/float64(window), p.Average.Float64, 1e-9, "index %d", i)
	}
}

func TestMovingAverage_WindowLargerThanSeries(t *testing.T) {
	points, err := MovingAverage(bars(1, 2, 3), DefaultWindow)
	require.NoError(t, err)
	require.Len(t, points, 3)
	for _, p := range points {
		assert.False(t, p.Average.Valid)
	}
}

func TestMovingAverage_InvalidWindow(t *testing.T) {
	_, err := MovingAverage(bars(1, 2), 0)
	assert.Error(t, err)
}

func TestMovingAverage_NaNCloseIsAbsent(t *testing.T) {
	points, err := MovingAverage(bars(1, math.NaN(), 3, 4), 2)
	require.NoError(t, err)
	assert.False(t, points[1].Average.Valid)
	assert.False(t, points[2].Average.Valid)
	assert.True(t, points[3].Average.Valid)
	assert.InDelta(t, 3.5, points[3].Average.Float64, 1e-9)
}

func TestDailyReturns_Example(t *testing.T) {
	rs := DailyReturns(bars(100, 110, 99))
	require.Len(t, rs, 2)
	assert.InDelta(t, 0.10, rs[0].Return.Float64, 1e-9)
	assert.InDelta(t, -0.10, rs[1].Return.Float64, 1e-9)
	assert.Equal(t, day(2024, time.March, 2), rs[0].Date)
}

func TestDailyReturns_Length(t *testing.T) {
	tests := []struct {
		closes []float64
		want   int
	}{
		{nil, 0},
		{[]float64{5}, 0},
		{[]float64{5, 6}, 1},
		{[]float64{5, 6, 7, 8}, 3},
	}
	for _, tt := range tests {
		assert.Len(t, DailyReturns(bars(tt.closes...)), tt.want)
	}
}

func TestDailyReturns_ZeroPreviousCloseIsUndefined(t *testing.T) {
	rs := DailyReturns(bars(10, 0, 5, 10))
	require.Len(t, rs, 3)
	assert.True(t, rs[0].Return.Valid)
	assert.InDelta(t, -1.0, rs[0].Return.Float64, 1e-9)
	assert.False(t, rs[1].Return.Valid)
	assert.True(t, rs[2].Return.Valid)
	assert.InDelta(t, 1.0, rs[2].Return.Float64, 1e-9)
}

func TestReturnsHistogram(t *testing.T) {
	rs := DailyReturns(bars(10, 0, 5, 10, 11, 9.9))
	h := ReturnsHistogram(rs, 4)

	assert.Equal(t, 1, h.Excluded)
	assert.Equal(t, 4, h.Samples)
	require.Len(t, h.Bins, 4)

	total := 0
	for _, b := range h.Bins {
		total += b.Count
	}
	assert.Equal(t, h.Samples, total)
	assert.InDelta(t, -1.0, h.Bins[0].Lower, 1e-9)
	assert.InDelta(t, 1.0, h.Bins[3].Upper, 1e-9)
	assert.Equal(t, 1, h.Bins[3].Count, "max value falls in the last bin")
}

func TestReturnsHistogram_Degenerate(t *testing.T) {
	h := ReturnsHistogram(nil, 0)
	assert.Empty(t, h.Bins)
	assert.Zero(t, h.Samples)

	flat := ReturnsHistogram(DailyReturns(bars(1, 1, 1)), 10)
	require.Len(t, flat.Bins, 1)
	assert.Equal(t, 2, flat.Bins[0].Count)
}

func TestMonthlyVolume_SameMonth(t *testing.T) {
	s := []model.OHLCV{
		{Date: day(2024, 5, 1), Close: 100, Volume: 10},
		{Date: day(2024, 5, 2), Close: 110, Volume: 20},
		{Date: day(2024, 5, 3), Close: 99, Volume: 5},
	}
	mv := MonthlyVolume(s)
	require.Len(t, mv, 1)
	assert.True(t, mv[time.May].Equal(decimal.NewFromInt(35)))
}

func TestMonthlyVolume_ConflatesYears(t *testing.T) {
	s := []model.OHLCV{
		{Date: day(2021, 1, 5), Volume: 7},
		{Date: day(2022, 1, 5), Volume: 3},
		{Date: day(2022, 2, 5), Volume: 4},
	}
	mv := MonthlyVolume(s)
	assert.Equal(t, []time.Month{time.January, time.February}, mv.Months())
	assert.True(t, mv[time.January].Equal(decimal.NewFromInt(10)))
	assert.InDelta(t, 10.0/14.0, mv.Share(time.January), 1e-9)
}

func TestMonthlyVolume_MassConservation(t *testing.T) {
	s := make([]model.OHLCV, 0, 800)
	start := day(2020, 4, 1)
	var want int64
	for i := 0; i < 800; i++ {
		v := int64(i*1_000_003) % 9_000_000
		want += v
		s = append(s, model.OHLCV{Date: start.AddDate(0, 0, i), Close: 1, Volume: v})
	}
	mv := MonthlyVolume(s)
	for m := range mv {
		assert.True(t, m >= time.January && m <= time.December)
	}
	assert.True(t, mv.Total().Equal(decimal.NewFromInt(want)))
}

func TestMonthlyVolume_NoOverflow(t *testing.T) {
	s := []model.OHLCV{
		{Date: day(2024, 6, 1), Volume: math.MaxInt64},
		{Date: day(2024, 6, 2), Volume: math.MaxInt64},
	}
	mv := MonthlyVolume(s)
	want := decimal.NewFromInt(math.MaxInt64).Mul(decimal.NewFromInt(2))
	assert.True(t, mv[time.June].Equal(want))
}

func TestDerivedMetrics_Idempotent(t *testing.T) {
	s := bars(3, 4, 5, 4, 3, 6, 7)
	ma1, _ := MovingAverage(s, 3)
	ma2, _ := MovingAverage(s, 3)
	assert.Equal(t, ma1, ma2)
	assert.Equal(t, DailyReturns(s), DailyReturns(s))
	assert.Equal(t, MonthlyVolume(s), MonthlyVolume(s))
}

func TestPriceTrend(t *testing.T) {
	trend := PriceTrend(bars(10, 20, 15))
	require.Len(t, trend.Points, 3)
	assert.Equal(t, 20.0, trend.High)
	assert.Equal(t, 10.0, trend.Low)
	assert.Equal(t, 15.0, trend.Last)
	assert.InDelta(t, 0.5, trend.Position, 1e-9)

	empty := PriceTrend(nil)
	assert.Empty(t, empty.Points)
	assert.Zero(t, empty.High)
}

func TestRangePosition_AllBoundaries(t *testing.T) {
	tests := []struct {
		current, high, low float64
		want               float64
	}{
		{5, 10, 0, 0.5},
		{-1, 10, 0, 0},
		{11, 10, 0, 1},
		{3, 3, 3, 0.5},
	}
	for _, tt := range tests {
		got, err := RangePosition(tt.current, tt.high, tt.low)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9)
	}
	_, err := RangePosition(1, 0, 10)
	assert.Error(t, err)
}
