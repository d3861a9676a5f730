package mocks

import (
	"github.com/benmeehan/gpsd-agent/pkg/identity"
	"github.com/stretchr/testify/mock"
)

// MockDeviceInfo is a mock implementation of the DeviceInfoInterface
type MockDeviceInfo struct {
	mock.Mock
}

func (m *MockDeviceInfo) LoadDeviceInfo() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDeviceInfo) GetDeviceID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockDeviceInfo) GetDeviceIdentity() *identity.Identity {
	args := m.Called()
	return args.Get(0).(*identity.Identity)
}
