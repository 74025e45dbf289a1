package cmd

import (
	"cleanny-dispatch/common/constant"
	commonJs "cleanny-dispatch/common/jetstream"
	"context"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/spf13/viper"
	"log"
	"log/slog"
	"time"
)

type eventHandler func(ctx context.Context, msg []byte) error

// consumeQueue pulls from the durable consumer `consumer:<name>` until ctx is
// done. Handlers are picked by subject; an error naks the message for a retry.
func consumeQueue(ctx context.Context, cfg *viper.Viper, js jetstream.JetStream, name, filter string, handlers map[string]eventHandler) {
	st, err := js.Stream(ctx, constant.QueueStreamName)
	if err != nil {
		log.Fatalln("failed to get stream", err)
	}

	cons, err := st.CreateOrUpdateConsumer(ctx, commonJs.QueueConsumerConfig(
		"consumer:"+name,
		filter,
		cfg.GetInt("queue."+name+".max_deliver"),
		cfg.GetDuration("queue."+name+".ack_wait"),
	))
	if err != nil {
		log.Fatalln("failed to create consumer", err)
	}

	nakDelay := cfg.GetDuration("queue." + name + ".nak_delay")
	if nakDelay <= 0 {
		nakDelay = time.Second
	}

	iter, err := cons.Messages()
	if err != nil {
		log.Fatalln("failed to open message iterator", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
				msg, err := iter.Next()
				if err != nil && err != jetstream.ErrMsgIteratorClosed {
					slog.ErrorContext(ctx, "Error fetching message", slog.Any(constant.LogFieldErr, err))
					continue
				}

				if msg == nil {
					continue
				}

				handler, ok := handlers[msg.Subject()]
				if !ok {
					slog.WarnContext(ctx, "no handler for subject", slog.String("subject", msg.Subject()))
					_ = msg.Term()
					continue
				}

				if err := handler(ctx, msg.Data()); err != nil {
					_ = msg.NakWithDelay(nakDelay)
					continue
				}

				if err := msg.Ack(); err != nil {
					slog.ErrorContext(ctx, "Error acknowledging message",
						slog.Any(constant.LogFieldErr, err),
						slog.Any(constant.LogFieldPayload, string(msg.Data())),
						slog.String("subject", msg.Subject()),
					)
					continue
				}
			}
		}
	}()

	slog.InfoContext(ctx, name+" queue consumer started")

	<-ctx.Done()

	iter.Stop()

	slog.InfoContext(ctx, name+" queue consumer stopped")
}
