package service_registry

import (
	"errors"
	"testing"

	"github.com/benmeehan/gpsd-agent/internal/mocks"
	"github.com/benmeehan/gpsd-agent/internal/utils"
	"github.com/benmeehan/gpsd-agent/pkg/location"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	name     string
	log      *[]string
	startErr error
	stopErr  error
}

func (s *recordingService) Start() error {
	*s.log = append(*s.log, "start "+s.name)
	return s.startErr
}

func (s *recordingService) Stop() error {
	*s.log = append(*s.log, "stop "+s.name)
	return s.stopErr
}

func TestServiceRegistry_StartStopOrder(t *testing.T) {
	// Setup
	var calls []string
	sr := NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())
	sr.RegisterService("a", &recordingService{name: "a", log: &calls})
	sr.RegisterService("b", &recordingService{name: "b", log: &calls})
	sr.RegisterService("a", &recordingService{name: "dup", log: &calls})

	// Execute
	require.NoError(t, sr.StartServices())
	require.NoError(t, sr.StopServices())

	// Assert
	assert.Equal(t, []string{"start a", "start b", "stop b", "stop a"}, calls)
	assert.Equal(t, []string{"a", "b"}, sr.Services())
}

func TestServiceRegistry_StartRollsBack(t *testing.T) {
	var calls []string
	sr := NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())
	sr.RegisterService("a", &recordingService{name: "a", log: &calls})
	sr.RegisterService("b", &recordingService{name: "b", log: &calls, startErr: errors.New("boom")})

	err := sr.StartServices()

	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"start a", "start b", "stop a"}, calls)
}

func TestServiceRegistry_StopJoinsErrors(t *testing.T) {
	var calls []string
	sr := NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())
	sr.RegisterService("a", &recordingService{name: "a", log: &calls, stopErr: errors.New("a failed")})
	sr.RegisterService("b", &recordingService{name: "b", log: &calls, stopErr: errors.New("b failed")})

	err := sr.StopServices()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stop a: a failed")
	assert.Contains(t, err.Error(), "failed to stop b: b failed")
}

func TestRegisterServices_EnabledOnly(t *testing.T) {
	cfg := &utils.Config{}
	cfg.Services.Location.Enabled = true
	cfg.Services.Status.Enabled = true
	sr := NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	err := sr.RegisterServices(cfg, new(mocks.MockDeviceInfo), new(mocks.MockProvider))

	require.NoError(t, err)
	assert.Equal(t, []string{"location", "status"}, sr.Services())
}

// plainProvider cannot report status.
type plainProvider struct {
	location.Provider
}

func TestRegisterServices_StatusNeedsReporter(t *testing.T) {
	cfg := &utils.Config{}
	cfg.Services.Status.Enabled = true
	sr := NewServiceRegistry(new(mocks.MockMQTTClient), zerolog.Nop())

	err := sr.RegisterServices(cfg, new(mocks.MockDeviceInfo), plainProvider{})

	assert.ErrorContains(t, err, "does not report status")
	assert.Empty(t, sr.Services())
}

func TestNewProvider(t *testing.T) {
	cfg := &utils.Config{}
	cfg.Services.Location.Source = utils.SourceGPSD
	p, err := NewProvider(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &location.GPSDProvider{}, p)

	cfg.Services.Location.Source = utils.SourceNMEA
	p, err = NewProvider(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &location.NMEAProvider{}, p)

	cfg.Services.Location.Source = "bluetooth"
	_, err = NewProvider(cfg, zerolog.Nop())
	assert.Error(t, err)
}
