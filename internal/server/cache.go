package server

import (
	"sync"

	"CoinLens/internal/model"
)

// ViewCache is a presenter that remembers the latest view and status for HTTP clients.
type ViewCache struct {
	mu     sync.RWMutex
	view   *model.ChartView
	status *model.Status
}

func NewViewCache() *ViewCache {
	return &ViewCache{}
}

func (c *ViewCache) Render(view *model.ChartView) error {
	c.mu.Lock()
	c.view = view
	c.mu.Unlock()
	return nil
}

func (c *ViewCache) Notify(status model.Status) {
	c.mu.Lock()
	c.status = &status
	c.mu.Unlock()
}

// Latest returns the last rendered view, or nil.
func (c *ViewCache) Latest() *model.ChartView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view
}

// Status returns the last status message, or nil.
func (c *ViewCache) Status() *model.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}
