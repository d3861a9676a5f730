package gpsd

import "math"

// Geo is the geodetic part of a TPV report. Angles are degrees, distances metres,
// speeds metres per second.
type Geo struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Altitude  float64 `json:"alt"`

	// Estimated errors, 0 when gpsd does not report them.
	ErrLongitude  float64 `json:"epx,omitempty"`
	ErrLatitude   float64 `json:"epy,omitempty"`
	ErrAltitude   float64 `json:"epv,omitempty"`
	ErrHorizontal float64 `json:"eph,omitempty"`

	Speed float64 `json:"speed,omitempty"`
	Track float64 `json:"track,omitempty"`
	Climb float64 `json:"climb,omitempty"`
}

// altitudeKeys lists the altitude fields in order of preference. Newer gpsd
// releases drop "alt" in favour of the explicit HAE/MSL pair.
var altitudeKeys = []string{"alt", "altHAE", "altMSL"}

// DecodeGeo reads the geographic fields of a TPV record.
func DecodeGeo(rec Record) (Geo, error) {
	var g Geo
	var err error

	if g.Latitude, err = requiredFloat(rec, "lat"); err != nil {
		return Geo{}, err
	}
	if g.Longitude, err = requiredFloat(rec, "lon"); err != nil {
		return Geo{}, err
	}
	for _, key := range altitudeKeys {
		alt, ok, err := floatField(rec, key)
		if err != nil {
			return Geo{}, err
		}
		if ok {
			g.Altitude = alt
			break
		}
	}

	optional := []struct {
		key string
		dst *float64
	}{
		{"epx", &g.ErrLongitude},
		{"epy", &g.ErrLatitude},
		{"epv", &g.ErrAltitude},
		{"eph", &g.ErrHorizontal},
		{"speed", &g.Speed},
		{"track", &g.Track},
		{"climb", &g.Climb},
	}
	for _, f := range optional {
		if *f.dst, err = optionalFloat(rec, f.key); err != nil {
			return Geo{}, err
		}
	}
	return g, nil
}

// HorizontalAccuracy returns eph when reported, otherwise combines epx and epy.
func (g Geo) HorizontalAccuracy() float64 {
	if g.ErrHorizontal > 0 {
		return g.ErrHorizontal
	}
	if g.ErrLongitude > 0 && g.ErrLatitude > 0 {
		return math.Hypot(g.ErrLongitude, g.ErrLatitude)
	}
	return 0
}
