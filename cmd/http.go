package cmd

import (
	"cleanny-dispatch/common/vars"
	"cleanny-dispatch/core/session"
	inboundCron "cleanny-dispatch/inbound/cron"
	inboundHttp "cleanny-dispatch/inbound/http"
	"cleanny-dispatch/outbound/repository"
	"context"
	"fmt"
	"github.com/go-playground/validator/v10"
	"log"
	"log/slog"
	"net/http"
	"time"
)

func runHttpServerCmd(ctx context.Context) {
	cfg := newCfg("env")

	stopProfiling := startProfiling(cfg, "http")
	defer stopProfiling()

	flushSpans := newTracer(ctx, cfg, "http")
	defer flushSpans()

	validate := validator.New()

	db := newDb(cfg)
	defer db.Close()

	cacheClient := newRedis(cfg)
	defer cacheClient.Close()

	natsConn := newNats(cfg)
	defer natsConn.Close()

	js := newJs(natsConn)
	createStreamWorkQueue(ctx, js)

	orders := repository.NewOrderRepository(db)
	customers := repository.NewCustomerRepository(db)
	staff := repository.NewStaffRepository(db)
	catalog := repository.NewCatalogRepository(db)
	scheduler := newScheduler(cfg, db, cacheClient, js)
	defer scheduler.Stop()

	machine := &session.Machine{
		Registry:  session.NewRegistry(cfg.GetInt("session.max_entries"), cfg.GetDuration("session.ttl")),
		Catalog:   vars.GetServices,
		Profiles:  customers,
		Orders:    orders,
		Discounts: catalog,
		Publisher: js,
		Validate:  validate,
		TimeNow:   time.Now,
		Horizon:   cfg.GetDuration("session.booking_horizon"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		slog.DebugContext(r.Context(), "health check")
		w.WriteHeader(http.StatusOK)
	})

	timeoutMiddleware := inboundHttp.TimeoutMiddleware(cfg.GetDuration("server.handler_timeout"))

	inboundHttp.RegisterSessionHttp(mux, machine, validate)
	inboundHttp.RegisterProposalHttp(mux, scheduler, validate)
	inboundHttp.RegisterOrderHttp(mux, orders, customers, catalog, staff, scheduler, validate)
	inboundHttp.RegisterStaffHttp(mux, staff, validate)

	catalogCron := &inboundCron.CatalogCron{
		Cfg:     cfg,
		Catalog: catalog,
	}

	err := catalogCron.InitCatalog(ctx)
	if err != nil {
		log.Fatalln("unable to init service catalog", err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.GetInt("server.port")),
		Handler:           timeoutMiddleware(inboundHttp.CorsMiddleware(inboundHttp.TraceMiddleware(mux))),
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.GetDuration("server.handler_timeout") + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalln("unable to start server", err)
		}
	}()

	slog.Info("http server started")

	go func() {
		catalogCron.Start(ctx)
	}()

	<-ctx.Done()

	ctxShutDown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutDown); err != nil {
		log.Fatalln("unable to shutdown server", err)
	}

	slog.Info("http server stopped")
}
