package calculator

import (
	"math"

	"github.com/guregu/null/v6"

	"CoinLens/internal/model"
)

// DefaultBins matches the dashboard's histogram resolution.
const DefaultBins = 50

// DailyReturns computes (close[i] - close[i-1]) / close[i-1] for every bar
// after the first. A zero or non-finite previous close, or a non-finite
// current close, yields an invalid Return rather than NaN or Inf.
func DailyReturns(bars []model.OHLCV) []model.ReturnPoint {
	if len(bars) < 2 {
		return []model.ReturnPoint{}
	}
	points := make([]model.ReturnPoint, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Close, bars[i].Close
		points[i-1] = model.ReturnPoint{Date: bars[i].Date}
		if prev == 0 || !finite(prev) || !finite(cur) {
			continue
		}
		r := (cur - prev) / prev
		if !finite(r) {
			continue
		}
		points[i-1].Return = null.FloatFrom(r)
	}
	return points
}

// ReturnsHistogram bins the defined returns into equal-width bins spanning
// their min and max. Undefined returns are counted in Excluded only.
func ReturnsHistogram(returns []model.ReturnPoint, bins int) model.Histogram {
	if bins <= 0 {
		bins = DefaultBins
	}
	h := model.Histogram{Bins: []model.HistogramBin{}}
	values := make([]float64, 0, len(returns))
	for _, r := range returns {
		if !r.Return.Valid {
			h.Excluded++
			continue
		}
		values = append(values, r.Return.Float64)
	}
	h.Samples = len(values)
	if len(values) == 0 {
		return h
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		h.Bins = append(h.Bins, model.HistogramBin{Lower: lo, Upper: hi, Count: len(values)})
		return h
	}

	width := (hi - lo) / float64(bins)
	h.Bins = make([]model.HistogramBin, bins)
	for i := range h.Bins {
		h.Bins[i].Lower = lo + float64(i)*width
		h.Bins[i].Upper = lo + float64(i+1)*width
	}
	h.Bins[bins-1].Upper = hi
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		h.Bins[idx].Count++
	}
	return h
}
