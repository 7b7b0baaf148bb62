package calculator

import (
	"github.com/shopspring/decimal"

	"CoinLens/internal/model"
)

// MonthlyVolume totals volume by calendar month only. Bars from the same
// month of different years land in the same bucket; callers rely on that.
func MonthlyVolume(bars []model.OHLCV) model.MonthlyVolume {
	mv := make(model.MonthlyVolume)
	for _, b := range bars {
		m := b.Date.Month()
		mv[m] = mv[m].Add(decimal.NewFromInt(b.Volume))
	}
	return mv
}
