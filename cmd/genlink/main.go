// genlink-bridge mirrors Generac Mobile Link generators into Home Assistant.
//
// It polls the vendor cloud on a fixed interval, normalises each generator's
// status, and publishes changes over MQTT with Home Assistant discovery.
// Device identity is stored in SQLite so a restart does not re-create
// entities.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/genlink-bridge/internal/api"
	"github.com/nerrad567/genlink-bridge/internal/bridge"
	"github.com/nerrad567/genlink-bridge/internal/device"
	"github.com/nerrad567/genlink-bridge/internal/discovery"
	"github.com/nerrad567/genlink-bridge/internal/infrastructure/config"
	"github.com/nerrad567/genlink-bridge/internal/infrastructure/database"
	"github.com/nerrad567/genlink-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/genlink-bridge/internal/infrastructure/mqtt"
	"github.com/nerrad567/genlink-bridge/internal/mobilelink"
	"github.com/nerrad567/genlink-bridge/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled.
// It returns nil on a clean shutdown.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting genlink-bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
		"api_version", cfg.MobileLink.APIVersion,
	)

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", db.Path())

	repo := device.NewSQLiteRepository(db.DB)
	handles, err := repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading device snapshot: %w", err)
	}

	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	mqttClient.SetLogger(log.With("component", "mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix, cfg.Presentation.DiscoveryPrefix)
	host := bridge.NewHost(mqttClient, bridge.HostConfig{
		Topics:       topics,
		QoS:          mqttClient.QoS(),
		Manufacturer: cfg.Presentation.Manufacturer,
		Version:      version,
	})
	host.SetLogger(log.With("component", "bridge"))
	if startErr := host.Start(ctx); startErr != nil {
		return fmt.Errorf("starting presentation host: %w", startErr)
	}
	defer func() {
		if stopErr := host.Stop(); stopErr != nil {
			log.Warn("error stopping presentation host", "error", stopErr)
		}
	}()

	registry := device.NewRegistry(host)
	registry.SetLogger(log.With("component", "registry"))
	registry.Restore(handles)
	log.Info("device registry restored", "devices", registry.Len())

	fetcher, err := mobilelink.NewClient(mobilelink.Config{
		BaseURL:        cfg.MobileLink.BaseURL,
		TokenURL:       cfg.MobileLink.TokenURL,
		ClientID:       cfg.MobileLink.ClientID,
		Username:       cfg.MobileLink.Username,
		Password:       cfg.MobileLink.Password,
		APIVersion:     cfg.MobileLink.APIVersion,
		RequestTimeout: cfg.GetRequestTimeout(),
	})
	if err != nil {
		return fmt.Errorf("creating Mobile Link client: %w", err)
	}
	fetcher.SetLogger(log.With("component", "mobilelink"))

	loop := discovery.NewLoop(registry, fetcher, discovery.Config{
		Interval:     cfg.GetDiscoveryInterval(),
		FetchTimeout: cfg.GetFetchTimeout(),
	})
	loop.SetLogger(log.With("component", "discovery"))
	loop.SetPersister(repo)

	health := bridge.NewHealthReporter(bridge.HealthReporterConfig{
		BridgeID:  cfg.Site.ID,
		Version:   version,
		Topics:    topics,
		QoS:       mqttClient.QoS(),
		Publisher: mqttClient,
		Loop:      loop,
		Devices:   registry,
	})
	health.SetLogger(log.With("component", "health"))
	loop.SetOnCycle(health.OnCycle)

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		if pubErr := health.PublishNow(); pubErr != nil {
			log.Warn("failed to refresh bridge summary", "error", pubErr)
		}
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.With("component", "api"),
			Devices: registry,
			Loop:    loop,
			Checks: map[string]api.HealthChecker{
				"database": db,
				"mqtt":     mqttClient,
			},
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	} else {
		log.Info("status API disabled")
	}

	// The host is subscribed and the registry restored, so the loop may start.
	ready := make(chan struct{})
	close(ready)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		health.Start(gctx)
		<-gctx.Done()
		health.Stop()
		return nil
	})
	g.Go(func() error {
		return loop.Run(gctx, ready)
	})

	log.Info("initialisation complete, waiting for shutdown signal")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("discovery loop: %w", err)
	}

	log.Info("genlink-bridge stopped")
	return nil
}
