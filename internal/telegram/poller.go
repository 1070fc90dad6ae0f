package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	pollTimeoutSec = 25
	retryInterval  = time.Second * 3
)

// Handler consumes one inbound update. Per-user ordering is the engine's
// concern; the poller dispatches updates concurrently.
type Handler func(ctx context.Context, update Update) error

type Poller struct {
	client     *Client
	handler    Handler
	workerPool WorkerPoolI
}

func NewPoller(client *Client, handler Handler) *Poller {
	return &Poller{
		client:     client,
		handler:    handler,
		workerPool: NewWorkerPool(10),
	}
}

func (p *Poller) Start(ctx context.Context) {
	zap.L().Info("Telegram poller started")
	go p.run(ctx)
}

func (p *Poller) run(ctx context.Context) {
	var offset int64

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping poller")
			p.workerPool.Close()
			return
		default:
		}

		updates, err := p.client.GetUpdates(ctx, offset, pollTimeoutSec)
		if err != nil {
			select {
			case <-ctx.Done():
				p.workerPool.Close()
				return
			case <-time.After(retryInterval):
			}
			continue
		}

		var g errgroup.Group
		for _, update := range updates {
			update := update
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}

			g.Go(func() error {
				return p.workerPool.AddTask(ctx, func() error {
					return p.handler(ctx, update)
				})
			})
		}
		if err := g.Wait(); err != nil {
			zap.L().Error("Error dispatching updates", zap.Error(err))
		}
	}
}
