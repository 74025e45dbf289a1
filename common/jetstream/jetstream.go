package jetstream

import (
	"cleanny-dispatch/common/constant"
	"context"
	"github.com/nats-io/nats.go/jetstream"
	"time"
)

// CreateQueueStream makes sure the work-queue stream carrying every events.> subject exists.
func CreateQueueStream(ctx context.Context, js jetstream.JetStream) (jetstream.Stream, error) {
	cfg := jetstream.StreamConfig{
		Name:      constant.QueueStreamName,
		Retention: jetstream.WorkQueuePolicy,
		Subjects:  []string{constant.AllWildcard},
		MaxBytes:  -1,
	}

	return js.CreateOrUpdateStream(ctx, cfg)
}

// QueueConsumerConfig builds the durable pull consumer config for one queue process.
func QueueConsumerConfig(durable, filter string, maxDeliver int, ackWait time.Duration) jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:       durable,
		FilterSubject: filter,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    maxDeliver,
		AckWait:       ackWait,
	}
}
