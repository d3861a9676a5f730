package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/gpsd-agent/internal/models"
	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
	"github.com/benmeehan/gpsd-agent/pkg/identity"
	"github.com/benmeehan/gpsd-agent/pkg/location"
	"github.com/benmeehan/gpsd-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// LocationService polls a location provider and publishes each fix to an MQTT topic.
type LocationService struct {
	// Configuration fields
	topic    string
	interval time.Duration
	timeout  time.Duration
	qos      int

	// Dependencies
	deviceInfo       identity.DeviceInfoInterface
	mqttClient       mqtt.MQTTClient
	logger           zerolog.Logger
	locationProvider location.Provider
	now              func() time.Time

	// Internal state management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewLocationService creates a new LocationService instance with the provided configuration.
func NewLocationService(topic string, interval, timeout time.Duration, qos int, deviceInfo identity.DeviceInfoInterface,
	mqttClient mqtt.MQTTClient, logger zerolog.Logger, locationProvider location.Provider) *LocationService {
	return &LocationService{
		topic:            topic,
		interval:         interval,
		timeout:          timeout,
		qos:              qos,
		deviceInfo:       deviceInfo,
		mqttClient:       mqttClient,
		logger:           logger,
		locationProvider: locationProvider,
		now:              time.Now,
	}
}

// Start initiates the LocationService, periodically publishing location data to the MQTT broker.
func (l *LocationService) Start() error {
	if l.ctx != nil {
		l.logger.Warn().Msg("LocationService is already running")
		return errors.New("location service is already running")
	}

	l.ctx, l.cancel = context.WithCancel(context.Background())

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ticker := time.NewTicker(l.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				// Failures are logged in publishCurrentLocation; the next tick retries.
				_ = l.publishCurrentLocation(l.ctx)
			case <-l.ctx.Done():
				l.logger.Info().Msg("LocationService is stopping")
				return
			}
		}
	}()

	l.logger.Info().
		Str("topic", l.topic).
		Dur("interval_ms", l.interval).
		Int("qos", l.qos).
		Msg("LocationService started")
	return nil
}

// Stop gracefully stops the LocationService and closes its provider.
func (l *LocationService) Stop() error {
	if l.ctx == nil {
		l.logger.Warn().Msg("LocationService is not running")
		return errors.New("location service is not running")
	}

	l.cancel()
	l.wg.Wait()
	l.ctx = nil
	l.cancel = nil

	if err := l.locationProvider.Close(); err != nil {
		l.logger.Error().Err(err).Msg("Failed to close location provider")
		return err
	}

	l.logger.Info().Msg("LocationService stopped")
	return nil
}

// publishCurrentLocation fetches the current fix and publishes it.
// gpsd.ErrGPSInactive is logged as a warning and nothing is published.
func (l *LocationService) publishCurrentLocation(parent context.Context) error {
	ctx, cancel := context.WithTimeout(parent, l.timeout)
	defer cancel()

	data, err := l.locationProvider.GetLocation(ctx)
	if errors.Is(err, gpsd.ErrGPSInactive) {
		l.logger.Warn().Msg("GPS has no active fix, skipping publish")
		return err
	}
	if err != nil {
		l.logger.Error().Err(err).Msg("Failed to get location from provider")
		return err
	}

	locationMessage := models.NewLocation(l.deviceInfo.GetDeviceID(), l.now().UTC(), data)

	payload, err := json.Marshal(locationMessage)
	if err != nil {
		l.logger.Error().Err(err).Msg("Failed to serialize location message")
		return err
	}

	token := l.mqttClient.Publish(l.topic, byte(l.qos), false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		l.logger.Error().
			Err(err).
			Str("topic", l.topic).
			Msg("Failed to publish location message to MQTT")
		return err
	}

	l.logger.Debug().
		Str("mode", locationMessage.Mode.String()).
		Float64("lat", locationMessage.Latitude).
		Float64("lon", locationMessage.Longitude).
		Int("satellites_used", locationMessage.SatellitesUsed).
		Str("topic", l.topic).
		Msg("Location published successfully")
	return nil
}
