package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/martirspe/reclamofacil-notifier/internal/config/engine"
	"github.com/martirspe/reclamofacil-notifier/internal/obs"
	kafkax "github.com/martirspe/reclamofacil-notifier/internal/repository/kafka"
	pg "github.com/martirspe/reclamofacil-notifier/internal/repository/postgres"
	"github.com/martirspe/reclamofacil-notifier/internal/services/admin"
	"github.com/martirspe/reclamofacil-notifier/internal/services/dispatch"
	"github.com/martirspe/reclamofacil-notifier/internal/services/lifecycle"
	"github.com/martirspe/reclamofacil-notifier/internal/services/scheduler"

	"go.uber.org/zap"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func wiring(db *pg.DB, cfg *config.Config, cons *kafkax.Consumer, l *zap.Logger) (*scheduler.Engine, *lifecycle.Controller, *admin.Server) {
	tenants := pg.NewTenantRepo(db)
	users := pg.NewUserRepo(db)
	claims := pg.NewClaimRepo(db)
	prefs := pg.NewPreferenceRepo(db)
	inapp := pg.NewInAppRepo(db)

	coord := &dispatch.Coordinator{
		Log:     l,
		Gen:     dispatch.NewGenerator(claims),
		Tenants: tenants,
		Prefs:   prefs,
		Markers: claims,
		Email:   dispatch.NewMailer(cfg.SMTP, l),
		InApp:   inapp,
		Clock:   systemClock{},
	}

	eng := scheduler.New(l, cfg.Sched, prefs, tenants, users, claims, coord, systemClock{})

	ctrl := &lifecycle.Controller{
		Log: l,
		Sub: cons,
		Out: lifecycle.NewFanout(l, users, inapp),
	}

	api := admin.New(cfg.Admin, l, eng, inapp)
	return eng, ctrl, api
}

func main() {
	// init
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfgPath := flag.String("config", "", "path to config yaml")
	flag.Parse()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}

	l.Info("starting notifier engine",
		zap.Any("kafka_in", cfg.In),
		zap.String("admin_addr", cfg.Admin.Addr),
		zap.String("metrics_addr", cfg.Server.MetricsAddr),
		zap.String("smtp_addr", cfg.SMTP.Addr),
	)

	// otel
	otelCloser, err := obs.SetupOTel(rootCtx, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Warn("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// db
	db, err := pg.New(rootCtx, cfg.DB)
	if err != nil {
		l.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	l.Info("db connected")

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(ctx context.Context) error {
		hctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
		defer cancel()
		return db.Pool.Ping(hctx)
	}, l)

	// kafka
	cons := kafkax.BootstrapConsumer(rootCtx, &cfg.In, l)
	defer func() { _ = cons.Close() }()
	l.Info("kafka consumer initialized",
		zap.Strings("brokers", cfg.In.Brokers),
		zap.String("group_id", cfg.In.GroupID),
		zap.String("topic", cfg.In.Topic),
	)

	// start
	eng, ctrl, api := wiring(db, cfg, cons, l)
	eng.Start(rootCtx)

	errCh := make(chan error, 2)
	go func() {
		l.Info("lifecycle controller starting")
		errCh <- ctrl.Run(rootCtx)
	}()
	go func() {
		errCh <- api.Run()
	}()

	// main loop
	var runErr error
	select {
	case <-rootCtx.Done():
		l.Info("shutdown signal")
	case runErr = <-errCh:
		if runErr != nil && !errors.Is(runErr, context.Canceled) {
			l.Error("runtime error", zap.Error(runErr))
		}
	}

	// graceful shutdown: stop cadences first so no new dispatches start,
	// then drain the http servers.
	eng.Stop()
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = api.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
