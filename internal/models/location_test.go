package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocation(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 5, 0, time.UTC)
	d := &gpsd.Data{
		Mode:        gpsd.Fix3D,
		Time:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		LeapSeconds: 18,
		Geo:         gpsd.Geo{Latitude: 52.5, Longitude: 13.4, Altitude: 80, ErrLongitude: 3, ErrLatitude: 4},
		Satellites:  []gpsd.Satellite{{PRN: 1, Used: true}, {PRN: 2}, {PRN: 3, Used: true}},
	}

	loc := NewLocation("rover-1", now, d)

	assert.Equal(t, "rover-1", loc.DeviceID)
	assert.Equal(t, 5.0, loc.Accuracy)
	assert.Equal(t, 3, loc.SatellitesSeen)
	assert.Equal(t, 2, loc.SatellitesUsed)
	assert.Equal(t, 18, loc.LeapSeconds)

	payload, err := json.Marshal(loc)
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"mode":"3D"`)
	assert.Contains(t, string(payload), `"fix_time":"2024-05-01T10:00:00Z"`)
}
