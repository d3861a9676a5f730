package mocks

import (
	"context"

	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
	"github.com/benmeehan/gpsd-agent/pkg/location"
	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock implementation of location.Provider and location.StatusReporter
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) GetLocation(ctx context.Context) (*gpsd.Data, error) {
	args := m.Called(ctx)
	data, _ := args.Get(0).(*gpsd.Data)
	return data, args.Error(1)
}

func (m *MockProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockProvider) Status() location.Status {
	args := m.Called()
	return args.Get(0).(location.Status)
}
