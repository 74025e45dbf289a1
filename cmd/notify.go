package cmd

import (
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/inbound/event"
	"cleanny-dispatch/outbound/email"
	"context"
)

func runQueueNotifyCmd(ctx context.Context) {
	cfg := newCfg("env")

	stopProfiling := startProfiling(cfg, "notify")
	defer stopProfiling()

	flushSpans := newTracer(ctx, cfg, "notify")
	defer flushSpans()

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamWorkQueue(ctx, js)

	outbound := &email.EmailOutbound{Cfg: cfg}
	outbound.Init()

	notifyEvent := event.NotifyEvent{
		Mailer:  outbound,
		Cache:   cacheClient,
		Timeout: cfg.GetDuration("queue.notify.timeout"),
	}

	consumeQueue(ctx, cfg, js, "notify", constant.NotifyWildcard, map[string]eventHandler{
		constant.SubjectNotifySend:    notifyEvent.SendHandler,
		constant.SubjectNotifyRetract: notifyEvent.RetractHandler,
	})
}
