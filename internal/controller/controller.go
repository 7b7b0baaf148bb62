package controller

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"CoinLens/internal/calculator"
	"CoinLens/internal/model"
	"CoinLens/internal/recorder"
	"CoinLens/internal/store"
)

// Status messages shown while loading.
const (
	MsgLoading   = "Loading data..."
	MsgLoaded    = "Data loading complete!"
	MsgRefresh   = "Refreshing data..."
	MsgRefreshed = "Data refreshed!"
)

// Loader fetches a validated series. *collector.Collector satisfies it.
type Loader interface {
	Collect(ctx context.Context, symbol string, start, end time.Time) (*model.Series, error)
	Name() string
}

// Presenter receives chart views and status messages.
type Presenter interface {
	Render(view *model.ChartView) error
	Notify(status model.Status)
}

// Options configures a Controller.
type Options struct {
	Symbols      []string
	DefaultChart model.ChartKind
	Start        time.Time
	Window       int
	Bins         int
}

// Snapshot is a consistent copy of the controller's state.
type Snapshot struct {
	State     model.State     `json:"state"`
	Symbol    string          `json:"symbol"`
	Chart     model.ChartKind `json:"chart"`
	Request   uint64          `json:"request"`
	LastError string          `json:"last_error,omitempty"`
	Loaded    bool            `json:"loaded"`
	Bars      int             `json:"bars"`
	FetchedAt time.Time       `json:"fetched_at"`
}

type request struct {
	seq       uint64
	id        string
	symbol    string
	start     time.Time
	end       time.Time
	doneMsg   string
	issuedAt  time.Time
	cancelCtx context.CancelFunc
}

// Controller drives symbol selection, loads and chart rendering. One load
// is in flight at a time; a newer request cancels the previous one and
// results of superseded requests are discarded.
type Controller struct {
	loader    Loader
	store     *store.SeriesStore
	presenter Presenter
	recorder  recorder.Recorder
	logger    logrus.FieldLogger
	opts      Options
	now       func() time.Time

	mu      sync.Mutex
	root    context.Context
	state   model.State
	symbol  string
	chart   model.ChartKind
	latest  uint64
	cancel  context.CancelFunc
	lastErr error
	wg      sync.WaitGroup
}

// New creates a Controller in the Idle state with the first symbol selected.
func New(loader Loader, st *store.SeriesStore, presenter Presenter, rec recorder.Recorder, logger logrus.FieldLogger, opts Options) *Controller {
	if len(opts.Symbols) == 0 {
		panic("controller: at least one symbol is required")
	}
	if !opts.DefaultChart.Valid() {
		panic(fmt.Sprintf("controller: invalid default chart %d", opts.DefaultChart))
	}
	if opts.Window <= 0 {
		opts.Window = calculator.DefaultWindow
	}
	if opts.Bins <= 0 {
		opts.Bins = calculator.DefaultBins
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Controller{
		loader:    loader,
		store:     st,
		presenter: presenter,
		recorder:  rec,
		logger:    logger,
		opts:      opts,
		now:       time.Now,
		root:      context.Background(),
		state:     model.StateIdle,
		symbol:    opts.Symbols[0],
		chart:     opts.DefaultChart,
	}
}

// Start binds loads to ctx and issues the initial load for the default symbol.
func (c *Controller) Start(ctx context.Context) uint64 {
	c.mu.Lock()
	c.root = ctx
	c.mu.Unlock()
	return c.issue(MsgLoading, MsgLoaded)
}

// Symbols returns the supported symbols.
func (c *Controller) Symbols() []string {
	return slices.Clone(c.opts.Symbols)
}

// SelectSymbol switches to symbol and loads it. Selecting the current
// symbol again is a no-op once it has been requested.
func (c *Controller) SelectSymbol(symbol string) (uint64, error) {
	if !slices.Contains(c.opts.Symbols, symbol) {
		return 0, &model.InvalidSelectionError{Field: "symbol", Value: symbol}
	}
	c.mu.Lock()
	if symbol == c.symbol && c.state != model.StateIdle {
		seq := c.latest
		c.mu.Unlock()
		return seq, nil
	}
	c.symbol = symbol
	ctx, req := c.issueLocked(MsgLoaded)
	c.mu.Unlock()
	return c.launch(ctx, req, MsgLoading), nil
}

// Refresh reloads the current symbol over the fixed start date through now.
func (c *Controller) Refresh() uint64 {
	return c.issue(MsgRefresh, MsgRefreshed)
}

// SelectChart records the chart selection and renders it from the store.
// It never touches the store and renders an empty view when nothing is loaded.
func (c *Controller) SelectChart(kind model.ChartKind) (*model.ChartView, error) {
	if !kind.Valid() {
		return nil, &model.InvalidSelectionError{Field: "chart", Value: fmt.Sprintf("%d", int(kind))}
	}
	c.mu.Lock()
	c.chart = kind
	c.mu.Unlock()
	return c.render(kind), nil
}

// View builds the view for the currently selected chart without presenting it.
func (c *Controller) View() *model.ChartView {
	c.mu.Lock()
	kind := c.chart
	c.mu.Unlock()
	return c.BuildView(kind)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	snap := Snapshot{
		State:   c.state,
		Symbol:  c.symbol,
		Chart:   c.chart,
		Request: c.latest,
	}
	if c.lastErr != nil {
		snap.LastError = c.lastErr.Error()
	}
	c.mu.Unlock()

	if series, ok := c.store.Current(); ok {
		snap.Loaded = true
		snap.Bars = series.Len()
		snap.FetchedAt = series.FetchedAt
	}
	return snap
}

// Wait blocks until every issued load has completed.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Stop cancels the in-flight load, if any, and waits for it to return.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.Wait()
}

func (c *Controller) issue(loadingMsg, doneMsg string) uint64 {
	c.mu.Lock()
	ctx, req := c.issueLocked(doneMsg)
	c.mu.Unlock()
	return c.launch(ctx, req, loadingMsg)
}

// issueLocked tags a new request and cancels the previous one. c.mu must be held.
func (c *Controller) issueLocked(doneMsg string) (context.Context, request) {
	c.latest++
	if c.cancel != nil {
		c.cancel()
	}
	ctx, cancel := context.WithCancel(c.root)
	c.cancel = cancel
	c.state = model.StateLoading
	c.wg.Add(1)
	return ctx, request{
		seq:       c.latest,
		id:        uuid.NewString(),
		symbol:    c.symbol,
		start:     c.opts.Start,
		end:       c.now(),
		doneMsg:   doneMsg,
		issuedAt:  c.now(),
		cancelCtx: cancel,
	}
}

func (c *Controller) launch(ctx context.Context, req request, loadingMsg string) uint64 {
	c.logger.WithFields(logrus.Fields{"symbol": req.symbol, "request": req.seq, "id": req.id}).Info("load issued")
	c.notify(model.StatusInfo, req.symbol, loadingMsg)
	go c.run(ctx, req)
	return req.seq
}

func (c *Controller) run(ctx context.Context, req request) {
	defer c.wg.Done()
	defer req.cancelCtx()

	series, err := c.loader.Collect(ctx, req.symbol, req.start, req.end)
	evt := &recorder.FetchEvent{
		RequestID: req.id,
		Seq:       req.seq,
		Symbol:    req.symbol,
		Provider:  c.loader.Name(),
		Start:     req.start,
		End:       req.end,
		Duration:  c.now().Sub(req.issuedAt),
		At:        c.now(),
	}
	log := c.logger.WithFields(logrus.Fields{"symbol": req.symbol, "request": req.seq, "id": req.id})

	c.mu.Lock()
	if req.seq != c.latest {
		c.mu.Unlock()
		log.Info("discarding stale response")
		evt.Outcome = recorder.OutcomeStale
		if series != nil {
			evt.Bars = series.Len()
		}
		c.record(evt)
		return
	}
	c.cancel = nil
	if err != nil {
		c.state = model.StateError
		c.lastErr = err
		c.mu.Unlock()

		log.WithError(err).Warn("load failed, keeping previous series")
		evt.Outcome = recorder.OutcomeFailed
		evt.Error = err.Error()
		var fe *model.FetchError
		if errors.As(err, &fe) {
			evt.ErrorKind = string(fe.Kind)
		}
		c.record(evt)
		c.notify(model.StatusError, req.symbol, fmt.Sprintf("Failed to load data: %v", err))
		return
	}
	c.store.Replace(series)
	c.state = model.StateReady
	c.lastErr = nil
	kind := c.chart
	c.mu.Unlock()

	log.WithField("bars", series.Len()).Info("series loaded")
	evt.Outcome = recorder.OutcomeOK
	evt.Bars = series.Len()
	c.record(evt)
	c.notify(model.StatusInfo, req.symbol, req.doneMsg)
	c.render(kind)
}

func (c *Controller) render(kind model.ChartKind) *model.ChartView {
	view := c.BuildView(kind)
	if err := c.presenter.Render(view); err != nil {
		c.logger.WithError(err).WithField("chart", kind.String()).Warn("render failed")
	}
	return view
}

// BuildView computes the dataset for kind from the current store contents.
func (c *Controller) BuildView(kind model.ChartKind) *model.ChartView {
	c.mu.Lock()
	view := &model.ChartView{Symbol: c.symbol, Kind: kind, State: c.state, RenderedAt: c.now()}
	c.mu.Unlock()

	series, ok := c.store.Current()
	if !ok || series.Len() == 0 {
		view.Empty = true
		return view
	}
	view.Symbol = series.Symbol
	bars := series.Bars

	switch kind {
	case model.ChartPriceTrend:
		trend := calculator.PriceTrend(bars)
		view.PriceTrend = &trend
	case model.ChartMovingAverage:
		points, err := calculator.MovingAverage(bars, c.opts.Window)
		if err != nil {
			panic(fmt.Sprintf("controller: moving average: %v", err))
		}
		view.Window = c.opts.Window
		view.MovingAverage = points
	case model.ChartReturnsHistogram:
		returns := calculator.DailyReturns(bars)
		hist := calculator.ReturnsHistogram(returns, c.opts.Bins)
		view.Returns = returns
		view.Histogram = &hist
	case model.ChartMonthlyVolume:
		view.MonthlyVolume = calculator.MonthlyVolume(bars)
	default:
		panic(fmt.Sprintf("controller: unhandled chart kind %d", kind))
	}
	return view
}

func (c *Controller) notify(level model.StatusLevel, symbol, msg string) {
	c.presenter.Notify(model.Status{Level: level, Symbol: symbol, Message: msg, At: c.now()})
}

func (c *Controller) record(evt *recorder.FetchEvent) {
	if err := c.recorder.RecordFetch(evt); err != nil {
		c.logger.WithError(err).Error("record fetch")
	}
}
