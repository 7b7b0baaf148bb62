package notifier

import (
	"fmt"
	"html"
	"math"
	"strings"

	"CoinLens/internal/model"
)

const (
	sparkWidth    = 40
	histogramRows = 10
	barWidth      = 20
)

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// FormatView renders a chart view as a Telegram HTML message.
func FormatView(view *model.ChartView) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n\n", html.EscapeString(view.Symbol), view.Kind))
	if view.Empty {
		b.WriteString("No data loaded yet.")
		return b.String()
	}

	switch view.Kind {
	case model.ChartPriceTrend:
		formatPriceTrend(&b, view.PriceTrend)
	case model.ChartMovingAverage:
		formatMovingAverage(&b, view)
	case model.ChartReturnsHistogram:
		formatHistogram(&b, view.Histogram)
	case model.ChartMonthlyVolume:
		formatMonthlyVolume(&b, view.MonthlyVolume)
	default:
		panic(fmt.Sprintf("notifier: unhandled chart kind %d", view.Kind))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStatus renders a status line.
func FormatStatus(status model.Status) string {
	icon := "ℹ️"
	if status.Level == model.StatusError {
		icon = "❌"
	}
	if status.Symbol == "" {
		return fmt.Sprintf("%s %s", icon, html.EscapeString(status.Message))
	}
	return fmt.Sprintf("%s <b>%s</b>: %s", icon, html.EscapeString(status.Symbol), html.EscapeString(status.Message))
}

func formatPriceTrend(b *strings.Builder, t *model.PriceTrend) {
	if t == nil || len(t.Points) == 0 {
		b.WriteString("No closing prices.\n")
		return
	}
	first, last := t.Points[0], t.Points[len(t.Points)-1]
	closes := make([]float64, len(t.Points))
	for i, p := range t.Points {
		closes[i] = p.Close
	}
	b.WriteString(fmt.Sprintf("%s → %s (%d days)\n", first.Date.Format("2006-01-02"), last.Date.Format("2006-01-02"), len(t.Points)))
	b.WriteString(fmt.Sprintf("<code>%s</code>\n\n", Sparkline(closes, sparkWidth)))
	b.WriteString(fmt.Sprintf("Last close: %.2f\n", t.Last))
	b.WriteString(fmt.Sprintf("High: %.2f | Low: %.2f\n", t.High, t.Low))
	b.WriteString(fmt.Sprintf("Range position: %.0f%%\n", t.Position*100))
}

func formatMovingAverage(b *strings.Builder, view *model.ChartView) {
	points := view.MovingAverage
	b.WriteString(fmt.Sprintf("Window: %d days\n", view.Window))
	if len(points) == 0 {
		b.WriteString("No closing prices.\n")
		return
	}
	closes := make([]float64, 0, len(points))
	averages := make([]float64, 0, len(points))
	for _, p := range points {
		closes = append(closes, p.Close)
		if p.Average.Valid {
			averages = append(averages, p.Average.Float64)
		}
	}
	b.WriteString(fmt.Sprintf("Close <code>%s</code>\n", Sparkline(closes, sparkWidth)))
	last := points[len(points)-1]
	if !last.Average.Valid {
		b.WriteString(fmt.Sprintf("\nLast close: %.2f\nNot enough data for a %d-day average.\n", last.Close, view.Window))
		return
	}
	b.WriteString(fmt.Sprintf("SMA   <code>%s</code>\n\n", Sparkline(averages, sparkWidth)))
	dev := (last.Close - last.Average.Float64) / last.Average.Float64 * 100
	b.WriteString(fmt.Sprintf("Last close: %.2f\n", last.Close))
	b.WriteString(fmt.Sprintf("SMA%d: %.2f (deviation %+.1f%%)\n", view.Window, last.Average.Float64, dev))
}

func formatHistogram(b *strings.Builder, h *model.Histogram) {
	if h == nil || h.Samples == 0 {
		b.WriteString("Not enough data for daily returns.\n")
		return
	}
	rows := mergeBins(h.Bins, histogramRows)
	peak := 0
	for _, r := range rows {
		peak = max(peak, r.Count)
	}
	b.WriteString("<pre>")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("%+7.2f%% %s %d\n", r.Lower*100, bar(float64(r.Count), float64(peak)), r.Count))
	}
	b.WriteString("</pre>\n")
	b.WriteString(fmt.Sprintf("Samples: %d", h.Samples))
	if h.Excluded > 0 {
		b.WriteString(fmt.Sprintf(" (%d excluded)", h.Excluded))
	}
	b.WriteString("\n")
}

func formatMonthlyVolume(b *strings.Builder, mv model.MonthlyVolume) {
	months := mv.Months()
	if len(months) == 0 {
		b.WriteString("No volume recorded.\n")
		return
	}
	peak := 0.0
	for _, m := range months {
		peak = max(peak, mv.Share(m))
	}
	b.WriteString("<pre>")
	for _, m := range months {
		share := mv.Share(m)
		b.WriteString(fmt.Sprintf("%s %s %5.1f%%\n", m.String()[:3], bar(share, peak), share*100))
	}
	b.WriteString("</pre>\n")
	b.WriteString(fmt.Sprintf("Total volume: %s\n", mv.Total().String()))
}

// Sparkline draws values as a row of block characters, resampled to at most width points.
func Sparkline(values []float64, width int) string {
	values = resample(values, width)
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		switch {
		case math.IsNaN(v) || math.IsInf(v, 0):
			b.WriteRune(' ')
		case hi == lo:
			b.WriteRune(sparkTicks[len(sparkTicks)/2])
		default:
			idx := int((v - lo) / (hi - lo) * float64(len(sparkTicks)-1))
			b.WriteRune(sparkTicks[idx])
		}
	}
	return b.String()
}

func resample(values []float64, width int) []float64 {
	if width <= 0 || len(values) <= width {
		return values
	}
	out := make([]float64, width)
	step := float64(len(values)-1) / float64(width-1)
	for i := range out {
		out[i] = values[int(math.Round(float64(i)*step))]
	}
	return out
}

func mergeBins(bins []model.HistogramBin, rows int) []model.HistogramBin {
	if len(bins) <= rows {
		return bins
	}
	per := (len(bins) + rows - 1) / rows
	var out []model.HistogramBin
	for i := 0; i < len(bins); i += per {
		end := min(i+per, len(bins))
		merged := model.HistogramBin{Lower: bins[i].Lower, Upper: bins[end-1].Upper}
		for _, bin := range bins[i:end] {
			merged.Count += bin.Count
		}
		out = append(out, merged)
	}
	return out
}

func bar(v, peak float64) string {
	n := 0
	if peak > 0 {
		n = int(math.Round(v / peak * barWidth))
	}
	return strings.Repeat("█", n) + strings.Repeat("·", barWidth-n)
}
