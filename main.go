package main

import (
	"context"
	"flag"
	"net/http"
	"sync"
	"time"

	"github.com/gr-butler/highlow/broker"
	"github.com/gr-butler/highlow/config"
	"github.com/gr-butler/highlow/env"
	"github.com/gr-butler/highlow/extremum"
	"github.com/gr-butler/highlow/lightning"
	"github.com/gr-butler/highlow/rollover"
	"github.com/gr-butler/highlow/samples"
	"github.com/gr-butler/highlow/store"
	"github.com/gr-butler/highlow/trend"
	"github.com/prometheus/client_golang/prometheus"

	logger "github.com/sirupsen/logrus"
)

const version = "GRB-HighLow-1.0.0"

// publisher is the outbound side of the broker
type publisher interface {
	Publish(topic string, payload []byte, retained bool) error
}

type weatherstation struct {
	cfg      *config.Config
	gw       store.Gateway
	table    *extremum.Table
	samples  *samples.Store
	trend    *trend.Classifier
	strikes  *lightning.Counter
	rollover *rollover.Engine
	loc      *time.Location
	pub      publisher
	testMode bool

	// serializes read-modify-write of the storage snapshot
	snapLock sync.Mutex
}

var Prom_latest = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "highlow_latest",
		Help: "Latest reading per sensor",
	},
	[]string{"sensor"},
)

var Prom_dayMax = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "highlow_day_max",
		Help: "Highest reading today per sensor",
	},
	[]string{"sensor"},
)

var Prom_dayMin = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "highlow_day_min",
		Help: "Lowest reading today per sensor",
	},
	[]string{"sensor"},
)

var Prom_updatesDropped = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "highlow_updates_dropped_total",
		Help: "Readings that could not be recorded",
	},
	[]string{"reason"},
)

var Prom_rolloverFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "highlow_rollover_failures_total",
		Help: "Sensors that failed to roll over",
	},
)

var Prom_lightningStrikes = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "highlow_lightning_strikes_3h",
		Help: "Lightning strikes in the last 3 hours",
	},
)

var Prom_pressureTrend = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "highlow_pressure_trend_delta",
		Help: "Pressure change over the trend window",
	},
)

// called by prometheus
func init() {
	prometheus.MustRegister(
		Prom_latest,
		Prom_dayMax,
		Prom_dayMin,
		Prom_updatesDropped,
		Prom_rolloverFailures,
		Prom_lightningStrikes,
		Prom_pressureTrend)
}

func newWeatherstation(cfg *config.Config, gw store.Gateway, loc *time.Location) *weatherstation {
	s := samples.NewStore(gw)
	table := extremum.NewTable(gw, extremum.Catalogue)
	return &weatherstation{
		cfg:      cfg,
		gw:       gw,
		table:    table,
		samples:  s,
		trend:    trend.NewClassifier(s, cfg.Station.UnitSystem),
		strikes:  lightning.NewCounter(s),
		rollover: rollover.NewEngine(table, s, loc),
		loc:      loc,
	}
}

func main() {
	logger.Infof("Starting highlow [%v]", version)

	args := env.Args{
		Test:       flag.Bool("test", false, "test mode, in memory store and no mqtt"),
		Verbose:    flag.Bool("verbose", false, "debug logging"),
		ConfigFile: flag.String("config", "", "path to a yaml config file"),
	}
	flag.Parse()

	cfg, err := config.Load(*args.ConfigFile)
	if err != nil {
		logger.Errorf("Failed to load config [%v]", err)
		logger.Exit(1)
	}
	setLogLevel(cfg.Log.Level, *args.Verbose)

	if *args.Test {
		logger.Info("TEST MODE")
	}

	loc, err := cfg.Station.Location()
	if err != nil {
		logger.Errorf("Bad timezone [%v]", err)
		logger.Exit(1)
	}

	ctx := context.Background()
	gw, schema, err := openGateway(ctx, cfg, *args.Test)
	if err != nil {
		logger.Errorf("Failed to open store [%v]", err)
		logger.Exit(1)
	}
	// shutdown closes the broker and the store, then exits
	var client *broker.Client
	shutdown := func(code int) {
		// a nil *broker.Client must not reach closeAll as a non-nil interface
		if client != nil {
			closeAll(client, gw)
		} else {
			closeAll(nil, gw)
		}
		logger.Exit(code)
	}

	if err := store.Prepare(ctx, gw, schema, env.SchemaVersion, extremum.Catalogue, cfg.Storage.LegacyFile); err != nil {
		logger.Errorf("Failed to prepare store [%v]", err)
		shutdown(1)
	}
	if snap, err := gw.Snapshot(ctx); err == nil {
		logger.Infof("Storage: rain today [%.2f] lightning total [%v]", snap.RainToday, snap.LightningCount)
	} else {
		logger.Warnf("Could not read storage [%v]", err)
	}

	w := newWeatherstation(cfg, gw, loc)
	w.testMode = *args.Test

	if !w.testMode && cfg.MQTT.Enabled {
		client, err = broker.Connect(cfg.MQTT)
		if err != nil {
			logger.Errorf("Failed to connect to MQTT [%v]", err)
			shutdown(1)
		}
		w.pub = client
		if err := client.Subscribe(client.Topic(observationTopic), w.handleObservation); err != nil {
			logger.Errorf("Failed to subscribe [%v]", err)
		}
		if err := client.Subscribe(client.Topic(strikeTopic), w.handleStrike); err != nil {
			logger.Errorf("Failed to subscribe [%v]", err)
		}
	}

	go w.StartRolloverScheduler(ctx)
	go w.StartPublisher(ctx)

	logger.Infof("Starting webservice on [%v]", cfg.HTTP.Address)
	err = http.ListenAndServe(cfg.HTTP.Address, w.router())
	logger.Errorf("Webservice stopped [%v]", err)
	shutdown(1)
}

// closeAll disconnects from the broker, when there is one, and closes the store.
func closeAll(client interface{ Close() }, gw store.Gateway) {
	if client != nil {
		client.Close()
	}
	if err := gw.Close(); err != nil {
		logger.Warnf("Failed to close store [%v]", err)
	}
}

func setLogLevel(level string, verbose bool) {
	if verbose {
		logger.SetLevel(logger.DebugLevel)
		return
	}
	lvl, err := logger.ParseLevel(level)
	if err != nil {
		logger.Warnf("Unknown log level [%v], using info", level)
		lvl = logger.InfoLevel
	}
	logger.SetLevel(lvl)
}
