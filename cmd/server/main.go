package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/thebandproject/bandsite/internal/calendar"
	"github.com/thebandproject/bandsite/internal/config"
	"github.com/thebandproject/bandsite/internal/handler"
	"github.com/thebandproject/bandsite/internal/logging"
	"github.com/thebandproject/bandsite/internal/metrics"
	"github.com/thebandproject/bandsite/internal/queue"
	"github.com/thebandproject/bandsite/internal/router"
	"github.com/thebandproject/bandsite/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	g, ctx := errgroup.WithContext(ctx)

	rdb := connectRedis(ctx, cfg.Redis, log)
	if rdb != nil {
		defer rdb.Close()
	}

	limiter, err := newLimiter(ctx, cfg.RateLimit, rdb, log)
	if err != nil {
		return err
	}

	st, err := openStores(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer st.close()

	fallback, err := loadFallback(cfg.Store.ShowsFile)
	if err != nil {
		return err
	}

	notifier, mailHandler := newNotifier(cfg.Notify, log)
	if cfg.Notify.Consumer && cfg.Notify.RabbitURL != "" {
		g.Go(func() error {
			err := queue.StartContactConsumer(ctx, cfg.Notify.RabbitURL, mailHandler, log.WithField("component", "contact-consumer"))
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	contact, err := service.NewContactService(service.ContactDeps{
		Limiter:     limiter,
		Store:       st.messages,
		Notifier:    notifier,
		Log:         log,
		Metrics:     m,
		SinkTimeout: cfg.SinkTimeout,
	})
	if err != nil {
		return err
	}

	enc, err := calendar.NewEncoder(calendar.Options{
		BandName:  cfg.Calendar.BandName,
		TZID:      cfg.Calendar.TZID,
		UIDDomain: cfg.Calendar.UIDDomain,
	})
	if err != nil {
		return err
	}

	shows := service.NewShowService(st.shows, fallback, log, m)
	e := router.New(router.Deps{
		Contact:     handler.NewContactHandler(contact, log),
		Shows:       handler.NewShowHandler(shows, enc, cfg.PublicBaseURL, log, m),
		Summary:     handler.NewSummaryHandler(shows, cfg.Band, cfg.PublicBaseURL),
		Log:         log,
		Metrics:     m,
		Gatherer:    reg,
		Redis:       rdb,
		Cache:       cfg.Cache,
		CORSOrigins: cfg.CORSOrigins,
	})

	addr := ":" + cfg.Port
	g.Go(func() error {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.Store.Driver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return e.Shutdown(sctx)
	})

	return g.Wait()
}
