package telegram

import (
	"context"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"
)

// maxInflight bounds concurrent command and reply handlers. The polling
// loop blocks once the bound is reached.
const maxInflight = 8

// Poller reads long-polled updates and dispatches them to the channel.
type Poller struct {
	channel *Channel
	timeout int
	logger  *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	handlers errgroup.Group
	stopOnce sync.Once
	done     chan struct{}
}

// NewPoller creates a Poller. timeout is the getUpdates timeout in seconds.
func NewPoller(c *Channel, timeout int, logger *slog.Logger) *Poller {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Poller{
		channel: c,
		timeout: timeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	p.handlers.SetLimit(maxInflight)
	return p
}

// Start launches the polling loop in a goroutine.
func (p *Poller) Start() {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = p.timeout
	cfg.AllowedUpdates = []string{"message"}
	updates := p.channel.currentBot().GetUpdatesChan(cfg)
	go p.loop(updates)
}

// Stop ends polling and waits for in-flight handlers, or for ctx.
// It is safe to call Stop multiple times.
func (p *Poller) Stop(ctx context.Context) error {
	p.stopOnce.Do(func() {
		p.channel.currentBot().StopReceivingUpdates()
		p.cancel()
	})
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Poller) loop(updates tgbotapi.UpdatesChannel) {
	defer close(p.done)
	defer func() { _ = p.handlers.Wait() }()

	for {
		select {
		case <-p.ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			p.dispatch(u)
		}
	}
}

func (p *Poller) dispatch(u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("update handler panicked", "update_id", u.UpdateID, "panic", r)
		}
	}()

	work := p.channel.route(p.ctx, u)
	if work == nil {
		return
	}
	p.handlers.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				p.logger.Error("update handler panicked", "update_id", u.UpdateID, "panic", r)
			}
		}()
		work(p.ctx)
		return nil
	})
}
