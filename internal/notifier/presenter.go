package notifier

import (
	"context"
	"errors"

	"CoinLens/internal/model"
)

// ErrQueueFull is returned by Render when the outgoing queue is saturated.
var ErrQueueFull = errors.New("telegram queue full")

const sendRetries = 3

// TelegramPresenter delivers views and statuses to the configured chat.
// Messages are queued and sent in order by Run so callers never block on the network.
type TelegramPresenter struct {
	notifier *TelegramNotifier
	queue    chan string
}

// NewTelegramPresenter creates a presenter with room for buffer pending messages.
func NewTelegramPresenter(n *TelegramNotifier, buffer int) *TelegramPresenter {
	if buffer <= 0 {
		buffer = 16
	}
	return &TelegramPresenter{notifier: n, queue: make(chan string, buffer)}
}

func (p *TelegramPresenter) Render(view *model.ChartView) error {
	return p.enqueue(FormatView(view))
}

func (p *TelegramPresenter) Notify(status model.Status) {
	if err := p.enqueue(FormatStatus(status)); err != nil {
		p.notifier.Logger.WithField("message", status.Message).Warn("dropping status, telegram queue full")
	}
}

func (p *TelegramPresenter) enqueue(text string) error {
	select {
	case p.queue <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Run sends queued messages until ctx is cancelled.
func (p *TelegramPresenter) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-p.queue:
			if err := p.notifier.SendWithRetry(ctx, text, sendRetries); err != nil && ctx.Err() == nil {
				p.notifier.Logger.WithError(err).Error("send notification")
			}
		}
	}
}
