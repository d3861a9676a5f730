package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/gpsd-agent/internal/models"
	"github.com/benmeehan/gpsd-agent/pkg/identity"
	"github.com/benmeehan/gpsd-agent/pkg/location"
	"github.com/benmeehan/gpsd-agent/pkg/mqtt"
	"github.com/rs/zerolog"
)

// StatusService periodically publishes what is known about the GPS receiver.
type StatusService struct {
	PubTopic   string
	Interval   time.Duration
	QOS        int
	Retained   bool
	DeviceInfo identity.DeviceInfoInterface
	MqttClient mqtt.MQTTClient
	Reporter   location.StatusReporter
	Logger     zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStatusService initializes a new StatusService.
func NewStatusService(pubTopic string, interval time.Duration, qos int, retained bool, deviceInfo identity.DeviceInfoInterface,
	mqttClient mqtt.MQTTClient, reporter location.StatusReporter, logger zerolog.Logger) *StatusService {

	return &StatusService{
		PubTopic:   pubTopic,
		Interval:   interval,
		QOS:        qos,
		Retained:   retained,
		DeviceInfo: deviceInfo,
		MqttClient: mqttClient,
		Reporter:   reporter,
		Logger:     logger,
	}
}

// Start launches the status loop in a separate goroutine.
func (s *StatusService) Start() error {
	if s.ctx != nil {
		s.Logger.Warn().Msg("StatusService is already running")
		return errors.New("status service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runStatusLoop()
	}()

	s.Logger.Info().Str("topic", s.PubTopic).Msg("StatusService started successfully")
	return nil
}

// Stop gracefully stops the status service.
func (s *StatusService) Stop() error {
	if s.ctx == nil {
		s.Logger.Warn().Msg("StatusService is not running")
		return errors.New("status service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.Logger.Info().Msg("StatusService stopped successfully")
	return nil
}

// runStatusLoop publishes one status message per interval.
func (s *StatusService) runStatusLoop() {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.publishStatus(); err != nil {
				s.Logger.Error().Err(err).Msg("Failed to publish status message")
			}
		case <-s.ctx.Done():
			s.Logger.Info().Msg("StatusService stopping gracefully")
			return
		}
	}
}

func (s *StatusService) publishStatus() error {
	statusMessage := models.Status{
		DeviceID:  s.DeviceInfo.GetDeviceID(),
		Timestamp: time.Now().UTC(),
		Receiver:  s.Reporter.Status(),
	}

	payload, err := json.Marshal(statusMessage)
	if err != nil {
		return err
	}

	token := s.MqttClient.Publish(s.PubTopic, byte(s.QOS), s.Retained, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}

	s.Logger.Debug().
		Bool("connected", statusMessage.Receiver.Connected).
		Int("devices", len(statusMessage.Receiver.Devices)).
		Msg("Status published successfully")
	return nil
}
