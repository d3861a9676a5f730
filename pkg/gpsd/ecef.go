package gpsd

import "math"

// WGS-84 ellipsoid.
const (
	wgs84A  = 6378137.0
	wgs84F  = 1.0 / 298.257223563
	wgs84E2 = wgs84F * (2.0 - wgs84F)
)

// ECEF is the earth-centred earth-fixed part of a TPV report, in metres and
// metres per second.
type ECEF struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	VX float64 `json:"vx,omitempty"`
	VY float64 `json:"vy,omitempty"`
	VZ float64 `json:"vz,omitempty"`

	PositionAccuracy float64 `json:"pAcc,omitempty"`
	VelocityAccuracy float64 `json:"vAcc,omitempty"`

	// Derived is set when gpsd sent no ECEF fields and the position was computed
	// from the geodetic coordinates.
	Derived bool `json:"derived,omitempty"`
}

// DecodeECEF reads the ECEF fields of a TPV record. Without ecefx/ecefy/ecefz
// the position is derived from lat/lon/alt.
func DecodeECEF(rec Record) (ECEF, error) {
	var e ECEF
	position := []struct {
		key string
		dst *float64
	}{
		{"ecefx", &e.X},
		{"ecefy", &e.Y},
		{"ecefz", &e.Z},
	}
	present, missing := 0, ""
	for _, f := range position {
		v, ok, err := floatField(rec, f.key)
		if err != nil {
			return ECEF{}, err
		}
		if !ok {
			missing = f.key
			continue
		}
		*f.dst = v
		present++
	}

	switch present {
	case 0:
		geo, err := DecodeGeo(rec)
		if err != nil {
			return ECEF{}, err
		}
		e.X, e.Y, e.Z = GeodeticToECEF(geo.Latitude, geo.Longitude, geo.Altitude)
		e.Derived = true
	case len(position):
	default:
		return ECEF{}, &DecodeError{Field: missing, Reason: "incomplete ECEF position"}
	}

	optional := []struct {
		key string
		dst *float64
	}{
		{"ecefvx", &e.VX},
		{"ecefvy", &e.VY},
		{"ecefvz", &e.VZ},
		{"ecefpAcc", &e.PositionAccuracy},
		{"ecefvAcc", &e.VelocityAccuracy},
	}
	var err error
	for _, f := range optional {
		if *f.dst, err = optionalFloat(rec, f.key); err != nil {
			return ECEF{}, err
		}
	}
	return e, nil
}

// GeodeticToECEF converts latitude/longitude in degrees and height above the
// ellipsoid in metres to ECEF metres.
func GeodeticToECEF(lat, lon, alt float64) (x, y, z float64) {
	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	sinp, cosp := math.Sincos(phi)
	sinl, cosl := math.Sincos(lambda)

	n := wgs84A / math.Sqrt(1-wgs84E2*sinp*sinp)
	x = (n + alt) * cosp * cosl
	y = (n + alt) * cosp * sinl
	z = (n*(1-wgs84E2) + alt) * sinp
	return x, y, z
}
