// Command lumberd runs the level override poller and the admin HTTP API for
// a lumber logger hierarchy.
//
// Configuration comes from LUMBER_* environment variables, see package config.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/linchenxuan/lumber"
	"github.com/linchenxuan/lumber/adminapi"
	"github.com/linchenxuan/lumber/config"
	"github.com/linchenxuan/lumber/log"
	"github.com/linchenxuan/lumber/override"
	"github.com/linchenxuan/lumber/plugin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thejerf/suture/v4"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("lumberd failed")
		_ = log.Close()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	plugins := plugin.NewManager()
	override.RegisterFactories(plugins)
	if err := plugins.SetupPlugins(cfg.PluginConf()); err != nil {
		return err
	}
	defer plugins.Close()

	store, err := override.StoreFrom(plugins, "")
	if err != nil {
		return err
	}

	metrics := override.NewMetrics(prometheus.DefaultRegisterer)
	lb, err := lumber.New(
		lumber.WithLogConfig(&cfg.Log),
		lumber.WithNamespace(cfg.Namespace),
		lumber.WithStore(store),
		lumber.WithMetrics(metrics),
		lumber.WithEngineOptions(override.WithKey(cfg.Override.Key), override.WithTTL(cfg.Override.TTL)),
	)
	if err != nil {
		return err
	}
	defer lb.Close()

	// Route the daemon's own logs through its hierarchy so they can be
	// overridden like any other logger.
	self, err := lb.Registry().FindOrCreate(log.DefaultLoggerName)
	if err != nil {
		return err
	}
	log.SetDefaultLogger(self)

	sup := suture.New("lumberd", suture.Spec{
		EventHook: func(e suture.Event) {
			log.Warn().Str("event", e.String()).Msg("supervisor event")
		},
	})
	if cfg.Override.Monitor {
		sup.Add(override.NewPoller(lb.Engine(), cfg.Override.PollInterval, override.WithPollerMetrics(metrics)))
	}
	if cfg.Admin.Enabled {
		router := adminapi.NewRouter(lb.Engine(), lb.Registry())
		if cfg.Admin.MetricsPath != "" {
			router.Handle(cfg.Admin.MetricsPath, promhttp.Handler())
		}
		sup.Add(adminapi.NewServer(cfg.Admin.Addr, router, cfg.Admin.ReadTimeout, cfg.Admin.ShutdownTimeout))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("store", cfg.Store.Type).Bool("monitor", cfg.Override.Monitor).
		Bool("admin", cfg.Admin.Enabled).Msg("lumberd started")
	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("lumberd stopped")
	return nil
}
