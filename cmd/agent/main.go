package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/gpsd-agent/internal/service_registry"
	"github.com/benmeehan/gpsd-agent/internal/utils"
	"github.com/benmeehan/gpsd-agent/pkg/file"
	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
	"github.com/benmeehan/gpsd-agent/pkg/identity"
	"github.com/benmeehan/gpsd-agent/pkg/location"
	"github.com/benmeehan/gpsd-agent/pkg/mqtt"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the agent configuration")
	once := flag.Bool("once", false, "poll one fix, print it as JSON and exit")
	flag.Parse()

	fileClient := file.NewFileService()

	// Load configuration from file
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging with JSON output. In -once mode stdout carries
	// the fix, so logs go to stderr.
	logOut := os.Stdout
	if *once {
		logOut = os.Stderr
	}
	logger, logCloser := utils.NewLogger(config, logOut)
	defer logCloser.Close()

	provider, err := service_registry.NewProvider(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create location provider")
	}

	if *once {
		code := pollOnce(config, provider, logger, os.Stdout)
		_ = logCloser.Close()
		os.Exit(code)
	}

	// Initialize DeviceInfo
	deviceInfo := identity.NewDeviceInfo(config.Identity.DeviceFile, fileClient)
	if err := deviceInfo.LoadDeviceInfo(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load device information")
	}

	// Generate a unique MQTT Client ID by appending a UUID
	clientID := config.MQTT.ClientID + "-" + uuid.New().String()
	logger.Info().Str("client_id", clientID).Str("device_id", deviceInfo.GetDeviceID()).Msg("Using MQTT Client ID")

	// Initialize the shared MQTT connection
	mqttClient := mqtt.NewMqttService(fileClient)
	err = mqttClient.Initialize(mqtt.Options{
		Broker:        config.MQTT.Broker,
		ClientID:      clientID,
		CACertificate: config.MQTT.CACertificate,
		Username:      config.MQTT.Username,
		Password:      config.MQTT.Password,
		ConnectWait:   config.MQTT.ConnectTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize MQTT connection")
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(mqttClient, logger)
	if err := serviceRegistry.RegisterServices(config, deviceInfo, provider); err != nil {
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	logger.Info().Msg("Shutting down gracefully...")
	if err := serviceRegistry.StopServices(); err != nil {
		logger.Error().Err(err).Msg("Services did not stop cleanly")
	}
	if !config.Services.Location.Enabled {
		_ = provider.Close()
	}
	mqttClient.Disconnect(250)
}

// pollOnce writes one fix to out. Exit code 2 means gpsd answered without an
// active receiver.
func pollOnce(config *utils.Config, provider location.Provider, logger zerolog.Logger, out io.Writer) int {
	defer provider.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.Services.Location.Timeout)
	defer cancel()

	data, err := provider.GetLocation(ctx)
	switch {
	case errors.Is(err, gpsd.ErrGPSInactive):
		logger.Warn().Msg("GPS is not active")
		return 2
	case errors.Is(err, gpsd.ErrNoDeviceFound):
		logger.Error().Msg("gpsd reports no GPS device")
		return 1
	case err != nil:
		logger.Error().Err(err).Msg("Failed to poll location")
		return 1
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		logger.Error().Err(err).Msg("Failed to encode fix")
		return 1
	}
	return 0
}
