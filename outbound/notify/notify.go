package notify

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/contract"
	"cleanny-dispatch/common/errs"
	"cleanny-dispatch/common/otel"
	"cleanny-dispatch/model"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"time"
)

var ErrNoRecipient = errors.New("notification has no recipient")

// Publisher hands notifications to the notify queue. Each one gets a handle
// that is remembered in the cache so the message can be retracted later.
type Publisher struct {
	Publisher contract.Publisher
	Cache     *redis.Client
	HandleTTL time.Duration
	NewHandle func() string
}

func handleKey(handle string) string {
	return fmt.Sprintf(constant.NotifyHandleKey, handle)
}

func RetractMarkKey(handle string) string {
	return fmt.Sprintf(constant.NotifyRetractMarkKey, handle)
}

func (p Publisher) Notify(ctx context.Context, n model.Notification) (string, error) {
	ctx, span := otel.Tracer.Start(ctx, "Publisher.Notify")
	defer span.End()

	if n.Recipient == "" {
		return "", ErrNoRecipient
	}

	handle := p.newHandle()

	data, err := json.Marshal(n)
	if err != nil {
		common.UtilSpanError(span, err)
		return "", errs.Wrap(err, "marshal notification")
	}

	if err = p.Cache.Set(ctx, handleKey(handle), data, p.ttl()).Err(); err != nil {
		common.UtilSpanError(span, err)
		return "", errs.Wrap(err, "remember notification handle")
	}

	err = common.PublishMessage(ctx, p.Publisher, constant.SubjectNotifySend, model.NotifySendEventMessage{
		Handle:       handle,
		Notification: n,
	})
	if err != nil {
		return "", errs.Wrap(err, "publish notification")
	}

	slog.DebugContext(ctx, "notification queued", common.ExtractTraceIDFromCtx(ctx),
		slog.String("handle", handle),
		slog.String("template", string(n.Template)),
	)

	return handle, nil
}

// Retract withdraws a previously sent notification. Unknown or already
// retracted handles are reported as unchanged.
func (p Publisher) Retract(ctx context.Context, handle string) (model.RetractResult, error) {
	ctx, span := otel.Tracer.Start(ctx, "Publisher.Retract")
	defer span.End()

	if handle == "" {
		return model.RetractUnchanged, nil
	}

	data, err := p.Cache.Get(ctx, handleKey(handle)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.RetractUnchanged, nil
	}
	if err != nil {
		common.UtilSpanError(span, err)
		return model.RetractUnchanged, errs.Wrap(err, "read notification handle")
	}

	marked, err := p.Cache.SetNX(ctx, RetractMarkKey(handle), 1, p.ttl()).Result()
	if err != nil {
		common.UtilSpanError(span, err)
		return model.RetractUnchanged, errs.Wrap(err, "mark notification retracted")
	}

	if !marked {
		return model.RetractUnchanged, nil
	}

	var n model.Notification
	if err = json.Unmarshal(data, &n); err != nil {
		return model.RetractUnchanged, errs.Wrap(err, "unmarshal notification")
	}

	err = common.PublishMessage(ctx, p.Publisher, constant.SubjectNotifyRetract, model.NotifyRetractEventMessage{
		Handle:       handle,
		Notification: n,
	})
	if err != nil {
		return model.RetractUnchanged, errs.Wrap(err, "publish retraction")
	}

	return model.RetractRetracted, nil
}

func (p Publisher) ttl() time.Duration {
	if p.HandleTTL > 0 {
		return p.HandleTTL
	}
	return constant.NotifyHandleDefaultTTL
}

func (p Publisher) newHandle() string {
	if p.NewHandle != nil {
		return p.NewHandle()
	}
	return ulid.Make().String()
}
