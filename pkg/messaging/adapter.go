package messaging

import (
	"context"

	"github.com/jwalitptl/health-assistant/pkg/logger"
)

// Handler processes one raw message.
type Handler func(ctx context.Context, payload []byte) error

// Consume subscribes to channel and feeds every message to handler until ctx
// is cancelled or the subscription closes. Handler errors are logged and do
// not stop consumption.
func Consume(ctx context.Context, broker Broker, channel string, log *logger.Logger, handler Handler) error {
	msgs, err := broker.Subscribe(ctx, channel)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := handler(ctx, msg); err != nil {
				log.Error(err, "failed to handle message", "channel", channel)
			}
		}
	}
}
