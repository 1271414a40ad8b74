// enodebd keeps a fleet of LTE eNodeBs configured over TR-069.
//
// It runs one state machine per device, reconciles each unit against the
// fleet file and exposes the fleet over a REST and WebSocket API. MQTT,
// InfluxDB and message tracing are optional.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	_ "github.com/nerrad567/enodebd/migrations"

	"github.com/nerrad567/enodebd/internal/api"
	"github.com/nerrad567/enodebd/internal/audit"
	"github.com/nerrad567/enodebd/internal/auth"
	"github.com/nerrad567/enodebd/internal/devices"
	"github.com/nerrad567/enodebd/internal/enodeb"
	"github.com/nerrad567/enodebd/internal/fleet"
	"github.com/nerrad567/enodebd/internal/infrastructure/config"
	"github.com/nerrad567/enodebd/internal/infrastructure/database"
	"github.com/nerrad567/enodebd/internal/infrastructure/influxdb"
	"github.com/nerrad567/enodebd/internal/infrastructure/logging"
	"github.com/nerrad567/enodebd/internal/infrastructure/mqtt"
	"github.com/nerrad567/enodebd/internal/manager"
	sm "github.com/nerrad567/enodebd/internal/statemachine"
	"github.com/nerrad567/enodebd/internal/trace"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	flags := pflag.NewFlagSet("enodebd", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to config file (default $ENODEBD_CONFIG or "+defaultConfigPath+")")
	showVersion := flags.Bool("version", false, "print version and exit")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *showVersion {
		fmt.Printf("enodebd %s (%s, %s)\n", version, commit, date)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, resolveConfigPath(*configPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled. Deferred
// closes run in reverse order of startup.
func run(ctx context.Context, configPath string) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting enodebd", "version", version, "commit", commit, "build_date", date)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "level", cfg.Logging.Level)

	fleetCfg, err := fleet.Load(cfg.ACS.FleetFile)
	if err != nil {
		return fmt.Errorf("loading fleet file: %w", err)
	}
	log.Info("fleet loaded", "path", cfg.ACS.FleetFile)

	db, err := database.Open(database.Config{
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
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", db.Path())

	records := enodeb.NewSQLiteRepository(db.DB)
	auditRepo := audit.NewSQLiteRepository(db.DB)
	operators := auth.NewOperatorRepository(db.DB)
	tokens := auth.NewTokenRepository(db.DB)
	if _, err := auth.SeedAdmin(ctx, operators, log.Logger); err != nil {
		return fmt.Errorf("seeding admin account: %w", err)
	}

	registry := devices.Default()
	deps := manager.Deps{
		Profiles:     registry,
		Settings:     fleetCfg,
		Timers:       timersFrom(cfg.ACS),
		Logger:       log,
		Store:        records,
		Audit:        auditRepo,
		IdleEviction: cfg.ACS.IdleEvictionDuration(),
	}

	// Interface fields stay nil unless the backend is up.
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		deps.Publisher = mqttClient
		log.Info("MQTT connected", "broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port))
	} else {
		log.Info("MQTT disabled")
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		deps.Metrics = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	if cfg.ACS.Trace.Enabled {
		tracer, traceErr := trace.NewWriter(cfg.ACS.Trace.Dir, cfg.ACS.Trace.Compress)
		if traceErr != nil {
			return fmt.Errorf("opening trace dir: %w", traceErr)
		}
		defer func() {
			if closeErr := tracer.Close(); closeErr != nil {
				log.Error("error closing trace files", "error", closeErr)
			}
		}()
		deps.Tracer = tracer
		log.Info("message tracing enabled", "dir", cfg.ACS.Trace.Dir, "compress", cfg.ACS.Trace.Compress)
	}

	hub := api.NewHub(cfg.WebSocket, log)
	go hub.Run(ctx)
	deps.Hub = hub

	mgr, err := manager.New(deps)
	if err != nil {
		return fmt.Errorf("creating manager: %w", err)
	}
	go mgr.Run(ctx)

	if mqttClient != nil {
		topic := mqtt.Topics{}.AllDeviceCommands()
		if err := mqttClient.Subscribe(topic, byte(cfg.MQTT.QoS), mgr.HandleCommand); err != nil { //nolint:gosec // G115: qos validated 0-2
			return fmt.Errorf("subscribing to commands: %w", err)
		}
		log.Info("listening for device commands", "topic", topic)
	}

	apiServer, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		Manager:   mgr,
		Records:   records,
		Audit:     auditRepo,
		Auth:      auth.NewService(operators, tokens, authConfig(cfg.Security.JWT)),
		Operators: operators,
		DB:        db,
		MQTT:      mqttClient,
		InfluxDB:  influxClient,
		Hub:       hub,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error stopping API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete", "device_types", registry.Names())

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// resolveConfigPath prefers the flag, then ENODEBD_CONFIG, then the default.
func resolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("ENODEBD_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

func timersFrom(acs config.ACSConfig) sm.Timers {
	return sm.Timers{
		BootDelay:     acs.BootDelayDuration(),
		RebootTimeout: acs.RebootTimeoutDuration(),
		RebootDelay:   acs.RebootDelayDuration(),
	}
}

func authConfig(jwt config.JWTConfig) auth.ServiceConfig {
	return auth.ServiceConfig{
		Secret:     jwt.Secret,
		AccessTTL:  time.Duration(jwt.AccessTokenTTL) * time.Minute,
		RefreshTTL: time.Duration(jwt.RefreshTokenTTL) * time.Minute,
	}
}

// healthCheck verifies the backends that were configured.
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
