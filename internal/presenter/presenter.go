package presenter

import (
	"github.com/sirupsen/logrus"

	"CoinLens/internal/model"
)

// Presenter mirrors controller.Presenter so fan-out targets can be composed here.
type Presenter interface {
	Render(view *model.ChartView) error
	Notify(status model.Status)
}

// Multi fans views and statuses out to every presenter. A failing
// presenter is logged and does not stop the others.
type Multi struct {
	presenters []Presenter
	logger     logrus.FieldLogger
}

// NewMulti creates a fan-out presenter.
func NewMulti(logger logrus.FieldLogger, presenters ...Presenter) *Multi {
	return &Multi{presenters: presenters, logger: logger}
}

// Add appends a presenter.
func (m *Multi) Add(p Presenter) {
	m.presenters = append(m.presenters, p)
}

func (m *Multi) Render(view *model.ChartView) error {
	for _, p := range m.presenters {
		if err := p.Render(view); err != nil {
			m.logger.WithError(err).WithField("chart", view.Kind.String()).Warn("presenter render failed")
		}
	}
	return nil
}

func (m *Multi) Notify(status model.Status) {
	for _, p := range m.presenters {
		p.Notify(status)
	}
}

// LogPresenter writes a one-line summary of each view to the log.
type LogPresenter struct {
	Logger logrus.FieldLogger
}

func NewLogPresenter(logger logrus.FieldLogger) *LogPresenter {
	return &LogPresenter{Logger: logger}
}

func (p *LogPresenter) Render(view *model.ChartView) error {
	fields := logrus.Fields{
		"symbol": view.Symbol,
		"chart":  view.Kind.String(),
		"state":  view.State,
	}
	if view.Empty {
		p.Logger.WithFields(fields).Info("no data to chart")
		return nil
	}
	for k, v := range Summary(view) {
		fields[k] = v
	}
	p.Logger.WithFields(fields).Info("chart rendered")
	return nil
}

func (p *LogPresenter) Notify(status model.Status) {
	entry := p.Logger.WithField("symbol", status.Symbol)
	if status.Level == model.StatusError {
		entry.Warn(status.Message)
		return
	}
	entry.Info(status.Message)
}

// Summary extracts headline numbers of a non-empty view.
func Summary(view *model.ChartView) map[string]any {
	out := map[string]any{}
	switch view.Kind {
	case model.ChartPriceTrend:
		if t := view.PriceTrend; t != nil {
			out["points"] = len(t.Points)
			out["last"] = t.Last
			out["high"] = t.High
			out["low"] = t.Low
		}
	case model.ChartMovingAverage:
		out["points"] = len(view.MovingAverage)
		out["window"] = view.Window
		if n := len(view.MovingAverage); n > 0 {
			last := view.MovingAverage[n-1]
			out["last_close"] = last.Close
			if last.Average.Valid {
				out["last_average"] = last.Average.Float64
			}
		}
	case model.ChartReturnsHistogram:
		out["returns"] = len(view.Returns)
		if h := view.Histogram; h != nil {
			out["bins"] = len(h.Bins)
			out["samples"] = h.Samples
			out["excluded"] = h.Excluded
		}
	case model.ChartMonthlyVolume:
		out["months"] = len(view.MonthlyVolume)
		out["total_volume"] = view.MonthlyVolume.Total().String()
	}
	return out
}
