package calculator

import (
	"errors"
	"math"

	"CoinLens/internal/model"
)

// PriceRange scans every bar and returns the highest and lowest close.
func PriceRange(bars []model.OHLCV) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, errors.New("no bars provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if !finite(b.Close) {
			continue
		}
		if b.Close > high {
			high = b.Close
		}
		if b.Close < low {
			low = b.Close
		}
	}
	if math.IsInf(high, -1) {
		return 0, 0, errors.New("no finite closes")
	}
	return high, low, nil
}

// RangePosition returns where the current price sits within the range (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// PriceTrend builds the price trend dataset. An empty input yields an empty trend.
func PriceTrend(bars []model.OHLCV) model.PriceTrend {
	trend := model.PriceTrend{Points: make([]model.PricePoint, len(bars))}
	for i, b := range bars {
		trend.Points[i] = model.PricePoint{Date: b.Date, Close: b.Close}
	}
	high, low, err := PriceRange(bars)
	if err != nil {
		return trend
	}
	trend.High, trend.Low = high, low
	trend.Last = bars[len(bars)-1].Close
	if !finite(trend.Last) {
		return trend
	}
	if pos, err := RangePosition(trend.Last, high, low); err == nil {
		trend.Position = pos
	}
	return trend
}
