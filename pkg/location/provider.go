package location

import (
	"context"

	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
)

// Provider interface defines the methods for location providers
type Provider interface {
	GetLocation(ctx context.Context) (*gpsd.Data, error)
	Close() error
}

// Status describes the receiver behind a provider.
type Status struct {
	Source    string        `json:"source"`
	Connected bool          `json:"connected"`
	Release   string        `json:"release,omitempty"`
	Devices   []gpsd.Device `json:"devices"`
}

// StatusReporter is implemented by providers that can describe their receiver.
type StatusReporter interface {
	Status() Status
}
