package cron

import (
	"cleanny-dispatch/common"
	"cleanny-dispatch/common/constant"
	"cleanny-dispatch/common/vars"
	"cleanny-dispatch/core/pricing"
	"cleanny-dispatch/model"
	"context"
	"fmt"
	"github.com/spf13/viper"
	"log/slog"
	"time"
)

type ServiceLister interface {
	ListServices(ctx context.Context) ([]model.Service, error)
}

// CatalogCron keeps the in-memory service catalog in step with the services
// table. A load that would not price an order keeps the previous snapshot.
type CatalogCron struct {
	Cfg     *viper.Viper
	Catalog ServiceLister
}

func (in CatalogCron) Start(ctx context.Context) {
	refreshTicker := time.NewTicker(in.Cfg.GetDuration("cron.catalog.interval"))
	defer refreshTicker.Stop()

	slog.Info("catalog cron started")

	for {
		select {
		case <-refreshTicker.C:
			in.refresh(ctx)
		case <-ctx.Done():
			slog.Info("catalog cron stopped")
			return
		}
	}
}

func (in CatalogCron) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, in.Cfg.GetDuration("cron.catalog.timeout"))
	defer cancel()

	traceIdAttr := common.ExtractTraceIDFromCtx(ctx)

	slog.DebugContext(ctx, "refreshing catalog", traceIdAttr)

	if err := in.load(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to refresh catalog", traceIdAttr, slog.Any(constant.LogFieldErr, err))
		return
	}

	slog.DebugContext(ctx, "catalog refreshed successfully", traceIdAttr)
}

// InitCatalog loads the first snapshot. The session machine cannot quote
// without it, so callers treat an error as fatal.
func (in CatalogCron) InitCatalog(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := in.load(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to initialize catalog", slog.Any(constant.LogFieldErr, err))
		return err
	}

	slog.InfoContext(ctx, "catalog initialized successfully", slog.Int("services", len(vars.GetServices())))
	return nil
}

func (in CatalogCron) load(ctx context.Context) error {
	services, err := in.Catalog.ListServices(ctx)
	if err != nil {
		return fmt.Errorf("list services: %w", err)
	}

	if _, err := pricing.NewCatalog(services); err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}

	vars.SetServices(services)

	return nil
}
