package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
)

// ChartKind selects which derived dataset is presented.
type ChartKind int

const (
	ChartPriceTrend ChartKind = iota
	ChartMovingAverage
	ChartReturnsHistogram
	ChartMonthlyVolume
)

// ChartKinds lists every chart in menu order.
var ChartKinds = []ChartKind{ChartPriceTrend, ChartMovingAverage, ChartReturnsHistogram, ChartMonthlyVolume}

var chartNames = map[ChartKind]string{
	ChartPriceTrend:       "Price Trend",
	ChartMovingAverage:    "Moving Average",
	ChartReturnsHistogram: "Daily Returns Histogram",
	ChartMonthlyVolume:    "Monthly Volume Contribution",
}

var chartAliases = map[string]ChartKind{
	"price":     ChartPriceTrend,
	"trend":     ChartPriceTrend,
	"ma":        ChartMovingAverage,
	"sma":       ChartMovingAverage,
	"returns":   ChartReturnsHistogram,
	"histogram": ChartReturnsHistogram,
	"volume":    ChartMonthlyVolume,
	"monthly":   ChartMonthlyVolume,
}

// Valid reports whether k is one of the known chart kinds.
func (k ChartKind) Valid() bool {
	_, ok := chartNames[k]
	return ok
}

func (k ChartKind) String() string {
	if name, ok := chartNames[k]; ok {
		return name
	}
	return "Unknown"
}

func (k ChartKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// ParseChartKind accepts a menu name ("Moving Average") or a short alias ("ma").
func ParseChartKind(s string) (ChartKind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if k, ok := chartAliases[key]; ok {
		return k, nil
	}
	for k, name := range chartNames {
		if strings.ToLower(name) == key {
			return k, nil
		}
	}
	return 0, &InvalidSelectionError{Field: "chart", Value: s}
}

// State is the controller's load lifecycle state.
type State string

const (
	StateIdle    State = "IDLE"
	StateLoading State = "LOADING"
	StateReady   State = "READY"
	StateError   State = "ERROR"
)

// PricePoint is one close price on the price trend chart.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceTrend is the dataset behind the price trend chart.
type PriceTrend struct {
	Points   []PricePoint `json:"points"`
	High     float64      `json:"high"`
	Low      float64      `json:"low"`
	Last     float64      `json:"last"`
	Position float64      `json:"position"` // 0.0 ~ 1.0
}

// MovingAveragePoint pairs a close with its trailing average, absent until the window fills.
type MovingAveragePoint struct {
	Date    time.Time  `json:"date"`
	Close   float64    `json:"close"`
	Average null.Float `json:"average"`
}

// ReturnPoint is the fractional change from the previous close. Return is
// invalid when the previous close is zero or either close is not finite.
type ReturnPoint struct {
	Date   time.Time  `json:"date"`
	Return null.Float `json:"return"`
}

// HistogramBin counts returns in [Lower, Upper); the last bin also includes Upper.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram is the distribution of defined daily returns.
type Histogram struct {
	Bins     []HistogramBin `json:"bins"`
	Samples  int            `json:"samples"`
	Excluded int            `json:"excluded"`
}

// MonthlyVolume maps a calendar month to total volume across every year in the series.
type MonthlyVolume map[time.Month]decimal.Decimal

// Total sums all months.
func (mv MonthlyVolume) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range mv {
		total = total.Add(v)
	}
	return total
}

// Months returns the present months in calendar order.
func (mv MonthlyVolume) Months() []time.Month {
	months := make([]time.Month, 0, len(mv))
	for m := time.January; m <= time.December; m++ {
		if _, ok := mv[m]; ok {
			months = append(months, m)
		}
	}
	return months
}

// Share returns the month's fraction of the total volume, 0 when the total is zero.
func (mv MonthlyVolume) Share(m time.Month) float64 {
	total := mv.Total()
	if total.IsZero() {
		return 0
	}
	return mv[m].Div(total).InexactFloat64()
}

// ChartView is what presenters receive. Exactly one dataset field is set
// for Kind unless Empty is true.
type ChartView struct {
	Symbol        string               `json:"symbol"`
	Kind          ChartKind            `json:"kind"`
	State         State                `json:"state"`
	Empty         bool                 `json:"empty"`
	Window        int                  `json:"window,omitempty"`
	PriceTrend    *PriceTrend          `json:"price_trend,omitempty"`
	MovingAverage []MovingAveragePoint `json:"moving_average,omitempty"`
	Returns       []ReturnPoint        `json:"returns,omitempty"`
	Histogram     *Histogram           `json:"histogram,omitempty"`
	MonthlyVolume MonthlyVolume        `json:"monthly_volume,omitempty"`
	RenderedAt    time.Time            `json:"rendered_at"`
}

// StatusLevel grades a status message.
type StatusLevel string

const (
	StatusInfo  StatusLevel = "INFO"
	StatusError StatusLevel = "ERROR"
)

// Status is a short user-facing message about the load lifecycle.
type Status struct {
	Level   StatusLevel `json:"level"`
	Symbol  string      `json:"symbol"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}
