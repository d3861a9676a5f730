package models

import (
	"time"

	"github.com/benmeehan/gpsd-agent/pkg/location"
)

// Status is the receiver state published on the status topic.
type Status struct {
	DeviceID  string          `json:"device_id"`
	Timestamp time.Time       `json:"timestamp"`
	Receiver  location.Status `json:"receiver"`
}
