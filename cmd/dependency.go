package cmd

import (
	commonJs "cleanny-dispatch/common/jetstream"
	"cleanny-dispatch/common/otel"
	"cleanny-dispatch/core/dispatch"
	"cleanny-dispatch/outbound/capacity"
	"cleanny-dispatch/outbound/notify"
	"cleanny-dispatch/outbound/proposal"
	"cleanny-dispatch/outbound/repository"
	"context"
	"fmt"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"log"
	"log/slog"
	"os"
	"runtime/pprof"
	"time"
)

func newCfg(name string) *viper.Viper {
	config := viper.New()

	config.SetConfigName(name)
	config.SetConfigType("yaml")
	config.AddConfigPath(".")

	err := config.ReadInConfig()
	if err != nil {
		log.Fatalln(err)
	}

	err = os.Setenv("TZ", config.GetString("server.timezone"))
	if err != nil {
		log.Fatalln(err)
	}

	return config
}

func newDb(cfg *viper.Viper) *pgxpool.Pool {
	username := cfg.GetString("db.user")
	password := cfg.GetString("db.password")
	host := cfg.GetString("db.host")
	port := cfg.GetInt("db.port")
	database := cfg.GetString("db.name")
	maxConn := cfg.GetInt("db.pool.max")
	minConn := cfg.GetInt("db.pool.min")
	timezone := cfg.GetString("server.timezone")

	connString := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?timezone=%s",
		username, password, host, port, database, timezone)

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		log.Fatalln(err)
	}

	config.MaxConns = int32(maxConn)
	config.MinConns = int32(minConn)
	config.ConnConfig.Tracer = otel.QueryTracer{}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		log.Fatalln(err)
	}

	err = pool.Ping(context.Background())
	if err != nil {
		log.Fatalln(err)
	}

	return pool
}

func newRedis(cfg *viper.Viper) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.GetString("redis.addr"),
		Password: cfg.GetString("redis.password"),
		DB:       cfg.GetInt("redis.db"),
	})

	err := rdb.Ping(context.Background()).Err()
	if err != nil {
		log.Fatalln(err)
	}

	return rdb
}

func newNats(cfg *viper.Viper) *nats.Conn {
	conn, err := nats.Connect(cfg.GetString("nats.addr"), nats.Name("cleanny-dispatch"))
	if err != nil {
		log.Fatalln(err)
	}

	return conn
}

func newJs(conn *nats.Conn) jetstream.JetStream {
	js, err := jetstream.New(conn)
	if err != nil {
		log.Fatalln(err)
	}

	return js
}

func createStreamWorkQueue(ctx context.Context, js jetstream.JetStream) jetstream.Stream {
	st, err := commonJs.CreateQueueStream(ctx, js)
	if err != nil {
		log.Fatalln("failed to create stream", err)
	}

	return st
}

// newTracer installs the OTLP exporter for one process. The returned func
// flushes pending spans.
func newTracer(ctx context.Context, cfg *viper.Viper, process string) func() {
	shutdown, err := otel.InitTracer(ctx, cfg.GetString("otel.endpoint"), process)
	if err != nil {
		log.Fatalln("failed to init tracer", err)
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := shutdown(ctx); err != nil {
			slog.Error("failed to flush spans", slog.Any("error", err))
		}
	}
}

// startProfiling writes CPU and heap profiles in dev. The returned func stops
// the CPU profile.
func startProfiling(cfg *viper.Viper, prefix string) func() {
	if cfg.GetString("env") != "dev" {
		return func() {}
	}

	cpu, err := os.Create(prefix + "-cpu.prof")
	if err != nil {
		log.Fatalf("could not create CPU profile: %v", err)
	}

	err = pprof.StartCPUProfile(cpu)
	if err != nil {
		log.Fatalf("could not start CPU profile: %v", err)
	}

	mem, err := os.Create(prefix + "-mem.prof")
	if err != nil {
		log.Fatalf("could not create memory profile: %v", err)
	}
	defer mem.Close()

	err = pprof.WriteHeapProfile(mem)
	if err != nil {
		log.Fatalf("could not write memory profile: %v", err)
	}

	return func() {
		pprof.StopCPUProfile()
		cpu.Close()
	}
}

func newLimits(cfg *viper.Viper) dispatch.Limits {
	limits := dispatch.DefaultLimits()

	if cfg.IsSet("dispatch.weekly_cap_hours") {
		limits.WeeklyCap = cfg.GetInt("dispatch.weekly_cap_hours")
	}
	if cfg.IsSet("dispatch.daily_cap_hours") {
		limits.DailyCap = cfg.GetInt("dispatch.daily_cap_hours")
	}
	if cfg.IsSet("dispatch.travel_hours") {
		limits.TravelHours = cfg.GetFloat64("dispatch.travel_hours")
	}
	if cfg.IsSet("dispatch.day_end") {
		limits.DayEndHour = cfg.GetInt("dispatch.day_end")
	}

	return limits
}

// newScheduler wires the dispatch scheduler onto Postgres, Redis and the
// notify stream. Every process that accepts or expires proposals builds one;
// the proposal store decides which of them wins.
func newScheduler(cfg *viper.Viper, db *pgxpool.Pool, cache *redis.Client, js jetstream.JetStream) *dispatch.Scheduler {
	staff := repository.NewStaffRepository(db)

	return &dispatch.Scheduler{
		Orders:    repository.NewOrderRepository(db),
		Staff:     staff,
		Customers: repository.NewCustomerRepository(db),
		Notifier: notify.Publisher{
			Publisher: js,
			Cache:     cache,
			HandleTTL: cfg.GetDuration("notify.handle_ttl"),
		},
		Proposals: proposal.RedisStore{Cache: cache},
		Selector: dispatch.Selector{
			Capacity: capacity.RedisSource{Cache: cache},
			Staff:    staff,
			Limits:   newLimits(cfg),
		},
		AcceptWindow:             cfg.GetDuration("dispatch.accept_window"),
		ExcludePreviouslyOffered: cfg.GetBool("dispatch.exclude_previously_offered"),
		SupervisorEmail:          cfg.GetString("dispatch.supervisor_email"),
		Timeout:                  cfg.GetDuration("dispatch.timeout"),
		Currency:                 message.NewPrinter(language.Russian),
		TimeNow:                  time.Now,
	}
}
