package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/gpsd-agent/internal/services"
	"github.com/benmeehan/gpsd-agent/internal/utils"
	"github.com/benmeehan/gpsd-agent/pkg/identity"
	"github.com/benmeehan/gpsd-agent/pkg/location"
	"github.com/benmeehan/gpsd-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services    map[string]Service // Stores registered services
	serviceKeys []string           // Maintains order of service registration
	mqttClient  mqtt.MQTTClient
	Logger      zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
func NewServiceRegistry(mqttClient mqtt.MQTTClient, logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:   make(map[string]Service),
		mqttClient: mqttClient,
		Logger:     logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// Services returns the registered service names in registration order.
func (sr *ServiceRegistry) Services() []string {
	return append([]string(nil), sr.serviceKeys...)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return err
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// NewProvider builds the location provider selected by the configuration.
func NewProvider(config *utils.Config, logger zerolog.Logger) (location.Provider, error) {
	switch config.Services.Location.Source {
	case utils.SourceGPSD, "":
		return location.NewGPSDProvider(config.GPSD.Host, config.GPSD.Port, logger, config.GPSDOptions()...), nil
	case utils.SourceNMEA:
		return location.NewNMEAProvider(config.Services.Location.GPSDevicePort, config.Services.Location.GPSDeviceBaudRate, logger), nil
	default:
		return nil, fmt.Errorf("unknown location source %q", config.Services.Location.Source)
	}
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config, deviceInfo identity.DeviceInfoInterface, provider location.Provider) error {
	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (Service, error)
	}{
		{
			name:    "location",
			enabled: config.Services.Location.Enabled,
			constructor: func() (Service, error) {
				return services.NewLocationService(
					config.Services.Location.Topic,
					config.Services.Location.Interval,
					config.Services.Location.Timeout,
					config.Services.Location.QOS,
					deviceInfo,
					sr.mqttClient,
					sr.Logger.With().Str("service", "location").Logger(),
					provider,
				), nil
			},
		},
		{
			name:    "status",
			enabled: config.Services.Status.Enabled,
			constructor: func() (Service, error) {
				reporter, ok := provider.(location.StatusReporter)
				if !ok {
					return nil, fmt.Errorf("location provider %T does not report status", provider)
				}
				return services.NewStatusService(
					config.Services.Status.Topic,
					config.Services.Status.Interval,
					config.Services.Status.QOS,
					config.Services.Status.Retained,
					deviceInfo,
					sr.mqttClient,
					reporter,
					sr.Logger.With().Str("service", "status").Logger(),
				), nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
