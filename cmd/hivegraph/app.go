package main

import (
	"fmt"
	"io"

	"github.com/dd0wney/hivegraph/pkg/access"
	"github.com/dd0wney/hivegraph/pkg/config"
	"github.com/dd0wney/hivegraph/pkg/dao"
	"github.com/dd0wney/hivegraph/pkg/events"
	"github.com/dd0wney/hivegraph/pkg/graph"
	"github.com/dd0wney/hivegraph/pkg/logging"
	"github.com/dd0wney/hivegraph/pkg/metrics"
	"github.com/dd0wney/hivegraph/pkg/schema"
	"github.com/dd0wney/hivegraph/pkg/service"
	"github.com/dd0wney/hivegraph/pkg/storage"
)

// app wires the store, the DAOs and the event sinks for one command invocation
type app struct {
	logger  logging.Logger
	metrics *metrics.Registry
	store   *storage.GraphStorage
	g       *graph.Source
	bus     *events.Bus
	journal *events.Journal
	sinks   []io.Closer

	users    *dao.UserDAO
	networks *dao.NetworkDAO
	devices  *dao.DeviceDAO
	access   *access.Engine

	networkService *service.NetworkService
	deviceService  *service.DeviceService
}

func openApp(cfg *config.Config, logger logging.Logger) (*app, error) {
	a := &app{logger: logger}
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewRegistry()
	}

	store, err := storage.NewGraphStorageWithConfig(cfg.StorageOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	a.store = store
	if a.metrics != nil {
		store.SetMetrics(a.metrics)
	}
	if err := schema.EnsureIndexes(store); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	a.bus = events.NewBus(logger, a.metrics)
	a.journal = events.NewJournal(cfg.JournalCapacity())
	a.bus.AddListener(a.journal)
	if addr := cfg.Events.NNGAddress; addr != "" {
		pub, err := events.NewNNGPublisher(addr, logger, a.metrics)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.bus.AddListener(pub)
		a.sinks = append(a.sinks, pub)
	}
	if brokers := cfg.Events.KafkaBrokers; brokers != "" {
		kafkaConfig := events.NewKafkaConfig(cfg.Events.KafkaRetries, cfg.Events.KafkaMaxMessageBytes)
		pub, err := events.NewKafkaPublisher(brokers, cfg.Events.KafkaTopic, kafkaConfig, logger, a.metrics)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.bus.AddListener(pub)
		a.sinks = append(a.sinks, pub)
	}

	a.g = graph.NewSource(store)
	opts := dao.Options{Logger: logger, Metrics: a.metrics, Events: a.bus}
	a.users = dao.NewUserDAO(a.g, opts)
	a.networks = dao.NewNetworkDAO(a.g, opts)
	a.devices = dao.NewDeviceDAO(a.g, opts)
	a.access = access.NewEngine(a.g, logger, a.metrics)
	a.networkService = service.NewNetworkService(a.networks, a.users, logger)
	a.deviceService = service.NewDeviceService(a.devices, a.networkService, a.access, logger)
	return a, nil
}

// Close drains pending events into the sinks, then closes the sinks and the store
func (a *app) Close() error {
	if a.bus != nil {
		a.bus.Shutdown()
	}
	for _, s := range a.sinks {
		if err := s.Close(); err != nil {
			a.logger.Warn("failed to close event sink", logging.Error(err))
		}
	}
	return a.store.Close()
}
