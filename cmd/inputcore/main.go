// Gray Logic Input - input binding and rebinding core
//
// This is the main entry point for the input core service. It loads the
// action schema, discovers input devices through the configured platform,
// applies the user's binding overrides and serves the rebinding API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/gray-logic-input/migrations"

	"github.com/nerrad567/gray-logic-input/internal/api"
	"github.com/nerrad567/gray-logic-input/internal/binding"
	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-input/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-input/internal/input"
	"github.com/nerrad567/gray-logic-input/internal/notify"
	"github.com/nerrad567/gray-logic-input/internal/override"
	"github.com/nerrad567/gray-logic-input/internal/platform"
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

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear start-up sequence
	log := logging.Default()
	log.Info("starting Gray Logic Input",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := config.Path()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	schema, err := binding.LoadSchema(cfg.Input.SchemaFile)
	if err != nil {
		return fmt.Errorf("loading input schema: %w", err)
	}
	fallback, err := device.ParseDevice(cfg.Input.DefaultDevice)
	if err != nil {
		return fmt.Errorf("input.default_device: %w", err)
	}
	log.Info("input schema loaded", "path", cfg.Input.SchemaFile, "maps", len(schema.Maps))

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	prefs := device.NewSQLitePreferenceRepository(db.DB)
	history := override.NewSQLiteHistory(db.DB)

	// Connect to MQTT broker (optional unless it is the platform)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	plat, stopPlatform, err := buildPlatform(cfg, mqttClient, log)
	if err != nil {
		return err
	}
	defer stopPlatform()

	hub := api.NewHub(cfg.WebSocket, log.Component("websocket"))
	notifiers := buildNotifiers(cfg, hub, mqttClient, influxClient, log)

	store := override.NewStore(cfg.Input.OverrideFile)
	handler, err := input.New(input.Options{
		Schema:           schema,
		Platform:         plat,
		Store:            store,
		Preferences:      prefs,
		History:          history,
		DefaultDevice:    fallback,
		DiscoveryTimeout: cfg.Input.DiscoveryTimeout,
		Notifier:         notifiers,
		Logger:           log.Component("input"),
	})
	if err != nil {
		return fmt.Errorf("creating input handler: %w", err)
	}
	defer handler.Close()

	server, err := api.New(api.Deps{
		Config:  cfg.API,
		WS:      cfg.WebSocket,
		Logger:  log.Component("api"),
		Input:   handler,
		History: history,
		Hub:     hub,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	if err := server.Start(gctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	g.Go(func() error {
		if err := handler.Initialise(gctx); err != nil {
			if gctx.Err() != nil {
				return nil
			}
			// Discovery failed: the API keeps serving lifecycle state so the
			// failure is visible, and reads return zero values.
			log.Error("input initialisation failed", "state", handler.State().String(), "error", err)
		}
		return nil
	})

	if cfg.Input.Watch {
		watcher, err := override.NewWatcher(store.Path(), cfg.Input.WatchDebounce, func(ctx context.Context) error {
			if !handler.IsReady() {
				return nil
			}
			_, err := handler.ReloadOverrides(ctx)
			return err
		})
		if err != nil {
			return fmt.Errorf("watching override file: %w", err)
		}
		watcher.SetLogger(log.Component("override_watcher"))
		g.Go(func() error {
			return watcher.Run(gctx)
		})
		log.Info("watching override file", "path", store.Path())
	}

	log.Info("initialisation started, waiting for shutdown signal")
	<-gctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("Gray Logic Input stopped")
	return nil
}

// buildPlatform returns the configured input platform and a function that
// releases it.
func buildPlatform(cfg *config.Config, mqttClient *mqtt.Client, log *logging.Logger) (input.Platform, func(), error) {
	switch cfg.Input.Platform {
	case config.PlatformMQTT:
		if mqttClient == nil {
			return nil, nil, fmt.Errorf("input.platform %q requires an MQTT connection", config.PlatformMQTT)
		}
		bus := platform.NewBus(mqttClient, byte(cfg.MQTT.QoS)) //nolint:gosec // QoS validated to 0-2
		bus.SetLogger(log.Component("bridge"))
		if err := bus.Start(); err != nil {
			return nil, nil, fmt.Errorf("starting input bridge: %w", err)
		}
		log.Info("input platform: MQTT bridge", "topic_prefix", mqtt.TopicPrefixBridge)
		return bus, bus.Stop, nil
	default:
		log.Info("input platform: in-memory")
		return platform.NewMemory(), func() {}, nil
	}
}

// buildNotifiers fans handler notifications out to the WebSocket hub and,
// when connected, to MQTT and InfluxDB.
func buildNotifiers(cfg *config.Config, hub *api.Hub, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) input.Notifiers {
	notifiers := input.Notifiers{hub}
	if mqttClient != nil {
		sink := notify.NewMQTT(mqttClient)
		sink.SetLogger(log.Component("notify"))
		notifiers = append(notifiers, sink)
	}
	if influxClient != nil {
		notifiers = append(notifiers, notify.NewInflux(influxClient, cfg.Site.ID))
	}
	return notifiers
}

// healthCheck verifies all infrastructure connections are healthy.
// Clients for disabled services are nil and skipped.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
