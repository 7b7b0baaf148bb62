package calculator

import (
	"errors"
	"math"

	"github.com/guregu/null/v6"

	"CoinLens/internal/model"
)

// DefaultWindow is the moving average length used by the dashboard.
const DefaultWindow = 30

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MovingAverage returns one point per bar with the trailing mean of the
// last window closes, the current bar included. The first window-1 points
// and any point whose window holds a non-finite close have no average.
func MovingAverage(bars []model.OHLCV, window int) ([]model.MovingAveragePoint, error) {
	if window <= 0 {
		return nil, errors.New("window must be positive")
	}
	closes := extractCloses(bars)
	points := make([]model.MovingAveragePoint, len(bars))
	for i, b := range bars {
		points[i] = model.MovingAveragePoint{Date: b.Date, Close: b.Close}
		if i+1 < window {
			continue
		}
		avg, err := CalculateSMA(closes[i+1-window:i+1], window)
		if err != nil || !finite(avg) {
			continue
		}
		points[i].Average = null.FloatFrom(avg)
	}
	return points, nil
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
