package cron

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/model"
	"context"
	"github.com/spf13/viper"
	"log/slog"
	"time"
)

const defaultStaleAfter = 2 * time.Minute

type OrderLister interface {
	List(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, orderID int64) error
	Recover(ctx context.Context, order model.Order) error
}

// ProposalCron sweeps orders the event path left behind: submitted orders
// whose event was never published or never processed, and orders awaiting
// confirmation whose expiry timer died with a previous process.
type ProposalCron struct {
	Cfg       *viper.Viper
	Orders    OrderLister
	Scheduler Dispatcher
	TimeNow   func() time.Time
}

func (in ProposalCron) Start(ctx context.Context) {
	refreshTicker := time.NewTicker(in.Cfg.GetDuration("cron.proposal.interval"))
	defer refreshTicker.Stop()

	in.refresh(ctx)

	slog.Info("proposal cron started")

	for {
		select {
		case <-refreshTicker.C:
			in.refresh(ctx)
		case <-ctx.Done():
			slog.Info("proposal cron stopped")
			return
		}
	}
}

func (in ProposalCron) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, in.Cfg.GetDuration("cron.proposal.timeout"))
	defer cancel()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	orders, err := in.Orders.List(ctx, model.OrderFilter{Statuses: []model.OrderStatus{
		model.OrderStatusSubmitted,
		model.OrderStatusPendingAssignment,
		model.OrderStatusAwaitingStaffConfirmation,
	}})
	if err != nil {
		slog.ErrorContext(ctx, "failed to list undispatched orders", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	staleBefore := in.now().Add(-in.staleAfter())

	for _, order := range orders {
		orderIdAttr := slog.Int64(constant.LogFieldOrderId, order.ID)

		switch order.Status {
		case model.OrderStatusAwaitingStaffConfirmation:
			if err := in.Scheduler.Recover(ctx, order); err != nil {
				slog.ErrorContext(ctx, "failed to recover proposal", traceIdAttr, orderIdAttr, slog.Any(constant.LogFieldErr, err))
			}
		default:
			// younger orders are still owned by the event consumer
			if order.OrderDate.After(staleBefore) {
				continue
			}
			slog.InfoContext(ctx, "dispatching stale order", traceIdAttr, orderIdAttr, slog.String("status", string(order.Status)))
			if err := in.Scheduler.Dispatch(ctx, order.ID); err != nil {
				slog.ErrorContext(ctx, "failed to dispatch stale order", traceIdAttr, orderIdAttr, slog.Any(constant.LogFieldErr, err))
			}
		}
	}
}

func (in ProposalCron) staleAfter() time.Duration {
	if d := in.Cfg.GetDuration("cron.proposal.stale_after"); d > 0 {
		return d
	}
	return defaultStaleAfter
}

func (in ProposalCron) now() time.Time {
	if in.TimeNow != nil {
		return in.TimeNow()
	}
	return time.Now()
}
