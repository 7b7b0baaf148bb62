package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"CoinLens/internal/controller"
	"CoinLens/internal/model"
	"CoinLens/internal/recorder"
)

// ChartController is the part of *controller.Controller the HTTP surface drives.
type ChartController interface {
	Symbols() []string
	Snapshot() controller.Snapshot
	SelectSymbol(symbol string) (uint64, error)
	SelectChart(kind model.ChartKind) (*model.ChartView, error)
	Refresh() uint64
	View() *model.ChartView
	BuildView(kind model.ChartKind) *model.ChartView
}

type ChartHandler struct {
	ctl      ChartController
	cache    *ViewCache
	recorder recorder.Recorder
}

func NewChartHandler(ctl ChartController, cache *ViewCache, rec recorder.Recorder) *ChartHandler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &ChartHandler{ctl: ctl, cache: cache, recorder: rec}
}

func (h *ChartHandler) GetSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"symbols": h.ctl.Symbols(),
		"current": h.ctl.Snapshot().Symbol,
	})
}

func (h *ChartHandler) GetCharts(c *gin.Context) {
	charts := make([]gin.H, 0, len(model.ChartKinds))
	for _, k := range model.ChartKinds {
		charts = append(charts, gin.H{"id": int(k), "name": k.String()})
	}
	c.JSON(http.StatusOK, gin.H{"charts": charts, "current": h.ctl.Snapshot().Chart})
}

func (h *ChartHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"snapshot": h.ctl.Snapshot(),
		"status":   h.cache.Status(),
	})
}

// GetChart returns the selected chart, or the chart named by ?kind= without changing the selection.
func (h *ChartHandler) GetChart(c *gin.Context) {
	if raw := c.Query("kind"); raw != "" {
		kind, err := model.ParseChartKind(raw)
		if err != nil {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusOK, h.ctl.BuildView(kind))
		return
	}
	c.JSON(http.StatusOK, h.ctl.View())
}

func (h *ChartHandler) SelectSymbol(c *gin.Context) {
	seq, err := h.ctl.SelectSymbol(c.Param("symbol"))
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"request": seq})
}

func (h *ChartHandler) SelectChart(c *gin.Context) {
	kind, err := model.ParseChartKind(c.Param("kind"))
	if err != nil {
		badRequest(c, err)
		return
	}
	view, err := h.ctl.SelectChart(kind)
	if err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ChartHandler) Refresh(c *gin.Context) {
	c.JSON(http.StatusAccepted, gin.H{"request": h.ctl.Refresh()})
}

func (h *ChartHandler) GetFetches(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	events, err := h.recorder.RecentFetches(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if events == nil {
		events = []recorder.FetchEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"fetches": events})
}

func badRequest(c *gin.Context, err error) {
	var sel *model.InvalidSelectionError
	if errors.As(err, &sel) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "field": sel.Field})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
