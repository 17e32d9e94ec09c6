package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AaronLay10/OrbFi/internal/api"
	"github.com/AaronLay10/OrbFi/internal/blocks"
	"github.com/AaronLay10/OrbFi/internal/config"
	"github.com/AaronLay10/OrbFi/internal/editor"
	"github.com/AaronLay10/OrbFi/internal/events"
	"github.com/AaronLay10/OrbFi/internal/mqtt"
	"github.com/AaronLay10/OrbFi/internal/storage"
	"github.com/AaronLay10/OrbFi/internal/storage/eventlog"
	"github.com/AaronLay10/OrbFi/internal/storage/memory"
	"github.com/AaronLay10/OrbFi/internal/storage/migrations"
	"github.com/AaronLay10/OrbFi/internal/storage/postgres"
	"github.com/AaronLay10/OrbFi/internal/studio"
	"github.com/AaronLay10/OrbFi/internal/templates"
	"github.com/AaronLay10/OrbFi/internal/toolbox"
	"github.com/AaronLay10/OrbFi/internal/version"
)

const healthInterval = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("ORBFI_CONFIG"), "path to orbfi.yaml (defaults and environment if empty)")
	flag.Parse()

	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, err := blocks.Default()
	if err != nil {
		log.Fatalf("failed to build block registry: %v", err)
	}

	tbCfg := toolbox.DefaultConfig()
	if cfg.Toolbox.File != "" {
		if tbCfg, err = toolbox.LoadConfig(cfg.Toolbox.File); err != nil {
			log.Fatalf("failed to load toolbox: %v", err)
		}
	}
	tb, err := toolbox.Build(reg, tbCfg)
	if err != nil {
		log.Fatalf("failed to build toolbox: %v", err)
	}
	if unlisted := tb.Unlisted(reg); len(unlisted) > 0 {
		log.Printf("toolbox: %d block types not in any category: %v", len(unlisted), unlisted)
	}

	lib, err := templates.Load()
	if err != nil {
		log.Fatalf("failed to load templates: %v", err)
	}
	var tplSource templates.Source = lib
	var watcher *templates.Watcher
	if cfg.Templates.Dir != "" {
		watcher = templates.NewWatcher(lib, cfg.Templates.Dir, reg)
		tplSource = watcher
	}

	var (
		store   storage.Store
		pgStore *postgres.Store
	)
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Storage.DSN)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		pgStore = postgres.NewStore(pool)
		store = pgStore
		api.SetPostgresState(true, false)
		log.Printf("storage: postgres")
	default:
		store = memory.NewStore()
		api.SetPostgresState(false, true)
		log.Printf("storage: in-memory (drafts and orbs are lost on restart)")
	}

	var history api.EventHistory
	if cfg.Events.DSN != "" {
		evlog, err := eventlog.Open(ctx, cfg.Events.DSN, cfg.Studio.InstanceID)
		if err != nil {
			log.Printf("events: persistence disabled: %v", err)
		} else {
			defer evlog.Close()
			events.SetSink(evlog)
			history = evlog
		}
	}

	svc := studio.New(reg, store, tplSource)

	var mq *mqtt.Client
	if cfg.MQTT.Broker != "" {
		mq = mqtt.NewClient(cfg.MQTT.Broker, cfg.MQTT.ClientID)
		perf := mqtt.NewPerformanceSubscriber(mq, svc)
		mq.OnConnect(func() {
			api.SetMQTTState(true, cfg.MQTT.Optional)
			// paho drops subscriptions on reconnect with a clean session.
			go func() {
				if err := perf.Subscribe(); err != nil {
					log.Printf("mqtt: subscribe to performance reports failed: %v", err)
				}
			}()
		})
		mq.OnConnectionLost(func(error) {
			perf.Reset()
			api.SetMQTTState(false, cfg.MQTT.Optional)
		})
		svc.SetNotifier(mqtt.NewNotifier(mq))

		if err := mq.Connect(); err != nil {
			if !cfg.MQTT.Optional {
				log.Fatalf("failed to connect to mqtt broker %s: %v", cfg.MQTT.Broker, err)
			}
			log.Printf("mqtt: broker unavailable, continuing without status updates: %v", err)
		}
		defer mq.Disconnect()
	} else {
		api.SetMQTTState(false, true)
	}

	server := api.NewServer(api.Options{
		Name:    cfg.Studio.Name,
		Studio:  svc,
		Toolbox: tb,
		History: history,
		Metrics: api.NewMetrics("orbfi"),
		Editor: editor.Options{
			Debounce:       cfg.Editor.Debounce,
			SuppressWindow: cfg.Editor.SuppressWindow,
		},
	})

	alerter := api.NewAlerter(api.AlertConfig{
		WebhookURL:    cfg.Alerts.WebhookURL,
		Service:       cfg.Studio.Name,
		Instance:      cfg.Studio.InstanceID,
		MQTTDelay:     cfg.Alerts.MQTTDelay,
		PostgresDelay: cfg.Alerts.PostgresDelay,
	})

	api.SetStudioReady(true)
	hostname, _ := os.Hostname()
	events.Emit("info", "system.startup", "studio starting", map[string]interface{}{
		"service":   cfg.Studio.Name,
		"instance":  cfg.Studio.InstanceID,
		"hostname":  hostname,
		"pid":       os.Getpid(),
		"version":   version.Version,
		"templates": tplSource.Current().Len(),
		"storage":   cfg.Storage.Driver,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.ListenAndServe(gctx, cfg.HTTP.Port, api.NewTLSConfig(cfg.HTTP.TLSCert, cfg.HTTP.TLSKey))
	})
	if watcher != nil {
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil {
				log.Printf("templates: override watcher stopped: %v", err)
			}
			return nil
		})
	}
	if pgStore != nil {
		g.Go(func() error {
			watchPostgres(gctx, pgStore)
			return nil
		})
	}
	g.Go(func() error {
		alerter.Run(gctx, healthInterval)
		return nil
	})

	err = g.Wait()
	api.SetStudioReady(false)
	events.Emit("info", "system.shutdown", "studio stopping", map[string]interface{}{
		"service": cfg.Studio.Name,
	})
	if err != nil {
		log.Fatalf("studio failed: %v", err)
	}
}

// watchPostgres keeps the readiness state in step with the database.
func watchPostgres(ctx context.Context, s *postgres.Store) {
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := s.Ping(pingCtx)
			cancel()
			if err != nil {
				log.Printf("storage: postgres ping failed: %v", err)
			}
			api.SetPostgresState(err == nil, false)
		}
	}
}
