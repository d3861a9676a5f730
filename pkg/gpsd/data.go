package gpsd

import (
	"fmt"
	"time"
)

// Data is one positioning snapshot built from a POLL response.
type Data struct {
	Mode        Fix         `json:"mode"`
	Time        time.Time   `json:"time"`
	LeapSeconds int         `json:"leapseconds"`
	Satellites  []Satellite `json:"satellites"`
	Geo         Geo         `json:"geo"`
	ECEF        ECEF        `json:"ecef"`
}

// mostRecentReport picks the report gpsd considers current: the last one in
// the list.
func mostRecentReport(reports []Record, key string) (Record, error) {
	if len(reports) == 0 {
		return nil, &DecodeError{Field: key, Reason: "no reports"}
	}
	return reports[len(reports)-1], nil
}

// FromPollMessage decodes a POLL response into a Data snapshot, using the most
// recent TPV and SKY reports.
func FromPollMessage(msg Record) (*Data, error) {
	tpvs, err := objectList(msg, "tpv", true)
	if err != nil {
		return nil, err
	}
	skies, err := objectList(msg, "sky", true)
	if err != nil {
		return nil, err
	}
	tpv, err := mostRecentReport(tpvs, "tpv")
	if err != nil {
		return nil, err
	}
	sky, err := mostRecentReport(skies, "sky")
	if err != nil {
		return nil, err
	}

	d := &Data{}
	if d.Mode, err = DecodeFix(tpv); err != nil {
		return nil, err
	}
	if d.Time, err = requiredTime(tpv, "time"); err != nil {
		return nil, err
	}
	if d.LeapSeconds, err = optionalInt(tpv, "leapseconds"); err != nil {
		return nil, err
	}
	// gpsd omits the position entirely while it has no fix.
	if d.HasFix() || hasPosition(tpv) {
		if d.Geo, err = DecodeGeo(tpv); err != nil {
			return nil, err
		}
		if d.ECEF, err = DecodeECEF(tpv); err != nil {
			return nil, err
		}
	}

	sats, err := objectList(sky, "satellites", false)
	if err != nil {
		return nil, err
	}
	d.Satellites = make([]Satellite, 0, len(sats))
	for i, rec := range sats {
		sat, err := DecodeSatellite(rec)
		if err != nil {
			return nil, fmt.Errorf("satellite %d: %w", i, err)
		}
		d.Satellites = append(d.Satellites, sat)
	}
	return d, nil
}

func hasPosition(tpv Record) bool {
	for _, key := range []string{"lat", "lon", "ecefx", "ecefy", "ecefz"} {
		if v, ok := tpv[key]; ok && v != nil {
			return true
		}
	}
	return false
}

// UsedSatellites returns the satellites that contributed to the fix, in order.
func (d *Data) UsedSatellites() []Satellite {
	used := make([]Satellite, 0, len(d.Satellites))
	for _, sat := range d.Satellites {
		if sat.Used {
			used = append(used, sat)
		}
	}
	return used
}

// SatelliteCount returns the number of satellites in view.
func (d *Data) SatelliteCount() int {
	return len(d.Satellites)
}

// HasFix reports whether the receiver has at least a 2D fix.
func (d *Data) HasFix() bool {
	return d.Mode >= Fix2D
}
