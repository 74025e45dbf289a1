package event

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/otel"
	"cleanny-dispatch/model"
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, orderID int64) error
}

type DispatchEvent struct {
	Scheduler Dispatcher
	Timeout   time.Duration
}

func (in DispatchEvent) SubmittedHandler(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, in.Timeout)
	defer cancel()

	var req model.OrderSubmittedEventMessage
	err := json.Unmarshal(msg, &req)
	if err != nil || req.ID <= 0 {
		slog.WarnContext(ctx, "order submitted event unmarshal error", slog.Any(constant.LogFieldErr, err), slog.String(constant.LogFieldPayload, string(msg)))
		return nil
	}

	ctx, span := otel.Tracer.Start(ctx, "DispatchEvent.SubmittedHandler")
	defer span.End()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)
	orderIdAttr := slog.Int64(constant.LogFieldOrderId, req.ID)

	slog.InfoContext(ctx, "order submitted event receive request", orderIdAttr, traceIdAttr)

	if err = in.Scheduler.Dispatch(ctx, req.ID); err != nil {
		slog.ErrorContext(ctx, "failed to dispatch order", orderIdAttr, traceIdAttr, slog.Any(constant.LogFieldErr, err))
		common.UtilSpanError(span, err)
		return err
	}

	slog.DebugContext(ctx, "order submitted event success", orderIdAttr, traceIdAttr)

	return nil
}
