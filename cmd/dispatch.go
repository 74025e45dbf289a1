package cmd

import (
	"cleanny-dispatch/common/constant"
	inboundCron "cleanny-dispatch/inbound/cron"
	"cleanny-dispatch/inbound/event"
	"cleanny-dispatch/outbound/repository"
	"context"
	"time"
)

func runQueueDispatchCmd(ctx context.Context) {
	cfg := newCfg("env")

	stopProfiling := startProfiling(cfg, "dispatch")
	defer stopProfiling()

	flushSpans := newTracer(ctx, cfg, "dispatch")
	defer flushSpans()

	db := newDb(cfg)
	defer db.Close()

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamWorkQueue(ctx, js)

	scheduler := newScheduler(cfg, db, cacheClient, js)
	defer scheduler.Stop()

	dispatchEvent := event.DispatchEvent{
		Scheduler: scheduler,
		Timeout:   cfg.GetDuration("queue.dispatch.timeout"),
	}

	proposalCron := inboundCron.ProposalCron{
		Cfg:       cfg,
		Orders:    repository.NewOrderRepository(db),
		Scheduler: scheduler,
		TimeNow:   time.Now,
	}

	go func() {
		proposalCron.Start(ctx)
	}()

	consumeQueue(ctx, cfg, js, "dispatch", constant.OrderWildcard, map[string]eventHandler{
		constant.SubjectOrderSubmitted: dispatchEvent.SubmittedHandler,
	})
}
