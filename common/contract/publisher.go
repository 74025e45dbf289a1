package contract

import (
	"context"
	"github.com/nats-io/nats.go/jetstream"
)

// Publisher is the slice of jetstream.JetStream the services publish through.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}
