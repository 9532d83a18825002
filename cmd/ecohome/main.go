package main

import (
	"context"
	"flag"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/ecohome/ecohome/internal/alerter"
	"github.com/ecohome/ecohome/internal/api"
	"github.com/ecohome/ecohome/internal/config"
	"github.com/ecohome/ecohome/internal/metrics"
	"github.com/ecohome/ecohome/internal/publisher"
	"github.com/ecohome/ecohome/internal/simulator"
	"github.com/ecohome/ecohome/internal/state"
	"github.com/ecohome/ecohome/internal/version"
	"github.com/ecohome/ecohome/internal/webui"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (empty uses the built-in household)")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	cfg, cfgErr := config.LoadConfig(*configPath)

	bufferSize := config.DefaultLogBufferSize
	if cfgErr == nil && cfg.Server.LogBufferSize > 0 {
		bufferSize = cfg.Server.LogBufferSize
	}
	logBuffer := webui.NewLogBuffer(bufferSize)

	// Setup logger with multi-writer (stdout + log buffer)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logLevelParsed, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		logLevelParsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevelParsed)

	info := version.Get()
	session := uuid.New().String()

	multiWriter := io.MultiWriter(os.Stdout, logBuffer)
	logger := zerolog.New(multiWriter).With().
		Timestamp().
		Str("version", info.Version).
		Str("commit", info.Commit).
		Str("session", session).
		Logger()

	logger.Info().Str("build", info.String()).Msg("Starting EcoHome")

	if cfgErr != nil {
		logger.Fatal().
			Err(cfgErr).
			Str("config_path", *configPath).
			Msg("Failed to load configuration")
	}
	cfg.ApplyEnv()

	logger.Info().
		Int("device_count", len(cfg.Devices)).
		Int("sample_count", len(cfg.Samples)).
		Int("window", cfg.Simulation.Window).
		Msg("Configuration loaded")

	seed := cfg.Seed()
	seed.Alerts = alerter.Build(cfg.Alerts, logger)
	store := state.NewStore(cfg.Rules(), seed, logger)

	snap := store.Snapshot()
	logger.Info().
		Float64("total_power_w", snap.Totals.PowerW).
		Float64("monthly_cost", snap.Totals.MonthlyCost).
		Float64("savings", snap.Totals.Savings).
		Msg("Session initialized")

	collector := metrics.NewMetricsCollector(store)
	store.Subscribe(collector.Observe)
	registry := metrics.NewRegistry(collector, info)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup

	// Outbound sinks; a sink that cannot connect is skipped
	var sinks []publisher.Sink
	var mqttSink *publisher.MQTTSink
	if cfg.MQTT.Enabled {
		opts := publisher.MQTTOptions{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTTPassword(),
			Prefix:   cfg.MQTT.TopicPrefix,
			QoS:      cfg.MQTT.QoS,
			Retained: cfg.MQTT.Retained,
		}
		sink, err := publisher.DialMQTT(opts, logger)
		if err != nil {
			logger.Error().Err(err).Msg("MQTT sink disabled")
		} else {
			mqttSink = sink
			sinks = append(sinks, mqttSink)
		}
	}
	if cfg.Kafka.Enabled {
		writer := publisher.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		sinks = append(sinks, publisher.NewKafkaSink(writer, cfg.Kafka.Topic))
		logger.Info().
			Strs("brokers", cfg.Kafka.Brokers).
			Str("topic", cfg.Kafka.Topic).
			Msg("Kafka sink enabled")
	}

	if len(sinks) > 0 {
		pub := publisher.New(logger, collector, session, sinks...)
		store.Subscribe(pub.Handle)
		wg.Add(1)
		go func() {
			defer wg.Done()
			pub.Run(ctx)
		}()
	}

	if mqttSink != nil && cfg.MQTT.Commands {
		if err := mqttSink.SubscribeCommands(store); err != nil {
			logger.Error().Err(err).Msg("Failed to subscribe to toggle commands")
		}
	}

	simOpts := simulator.Options{
		Interval: cfg.Simulation.Interval,
		MinKWh:   cfg.Simulation.MinKWh,
		MaxKWh:   cfg.Simulation.MaxKWh,
		Tariff:   cfg.TariffParams(),
	}
	if cfg.Simulation.Seed != 0 {
		simOpts.Random = rand.New(rand.NewSource(cfg.Simulation.Seed))
	}
	sim := simulator.New(store, simOpts, logger)
	wg.Add(1)
	go func() {
		defer wg.Done()
		sim.Run(ctx)
	}()

	apiServer := api.NewServer(store, logger, cfg.Server.Port)
	apiServer.SetLogBuffer(logBuffer)
	apiServer.SetFlapDetector(alerter.NewFlapDetector(logger, cfg.Server.FlapThreshold, cfg.Server.FlapWindow))
	apiServer.SetMetricsHandler(metrics.Handler(registry))
	apiServer.SetConfigPath(*configPath)
	apiServer.SetCurrency(cfg.Tariff.Currency)
	apiServer.SetSession(session)
	apiServer.SetVersion(info)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := apiServer.Start(ctx); err != nil {
			logger.Error().
				Err(err).
				Msg("API server error")
			cancel()
		}
	}()

	logger.Info().
		Str("port", cfg.Server.Port).
		Msg("Web UI available")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info().Msg("EcoHome running, press Ctrl+C to stop")

	select {
	case <-sigChan:
		logger.Info().Msg("Shutting down...")
	case <-ctx.Done():
	}

	cancel()
	wg.Wait()
	logger.Info().Msg("EcoHome stopped")
}
