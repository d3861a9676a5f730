package models

import (
	"time"

	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
)

// Location is the fix published on the location topic.
type Location struct {
	DeviceID       string    `json:"device_id"`
	Timestamp      time.Time `json:"timestamp"`
	FixTime        time.Time `json:"fix_time"`
	Mode           gpsd.Fix  `json:"mode"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Altitude       float64   `json:"altitude"`
	Accuracy       float64   `json:"accuracy"`
	Speed          float64   `json:"speed"`
	Track          float64   `json:"track"`
	LeapSeconds    int       `json:"leap_seconds"`
	SatellitesSeen int       `json:"satellites_seen"`
	SatellitesUsed int       `json:"satellites_used"`
	ECEF           gpsd.ECEF `json:"ecef"`
}

// NewLocation builds the published message from a fix.
func NewLocation(deviceID string, now time.Time, d *gpsd.Data) Location {
	return Location{
		DeviceID:       deviceID,
		Timestamp:      now,
		FixTime:        d.Time,
		Mode:           d.Mode,
		Latitude:       d.Geo.Latitude,
		Longitude:      d.Geo.Longitude,
		Altitude:       d.Geo.Altitude,
		Accuracy:       d.Geo.HorizontalAccuracy(),
		Speed:          d.Geo.Speed,
		Track:          d.Geo.Track,
		LeapSeconds:    d.LeapSeconds,
		SatellitesSeen: d.SatelliteCount(),
		SatellitesUsed: len(d.UsedSatellites()),
		ECEF:           d.ECEF,
	}
}
