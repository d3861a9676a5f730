package gpsd

// Satellite is one entry of a SKY report's satellite list.
type Satellite struct {
	PRN            int     `json:"prn"`
	Elevation      float64 `json:"el"`
	Azimuth        float64 `json:"az"`
	SignalStrength float64 `json:"ss"`
	Used           bool    `json:"used"`

	GNSSID int `json:"gnssid,omitempty"`
	SVID   int `json:"svid,omitempty"`
	Health int `json:"health,omitempty"`
}

// DecodeSatellite reads one satellite object. PRN and used are required.
func DecodeSatellite(rec Record) (Satellite, error) {
	var s Satellite

	prn, ok, err := intField(rec, "PRN")
	if err != nil {
		return Satellite{}, err
	}
	if !ok {
		return Satellite{}, missingField("PRN")
	}
	s.PRN = prn

	if s.Used, err = requiredBool(rec, "used"); err != nil {
		return Satellite{}, err
	}
	if s.Elevation, err = optionalFloat(rec, "el"); err != nil {
		return Satellite{}, err
	}
	if s.Azimuth, err = optionalFloat(rec, "az"); err != nil {
		return Satellite{}, err
	}
	if s.SignalStrength, err = optionalFloat(rec, "ss"); err != nil {
		return Satellite{}, err
	}
	if s.GNSSID, err = optionalInt(rec, "gnssid"); err != nil {
		return Satellite{}, err
	}
	if s.SVID, err = optionalInt(rec, "svid"); err != nil {
		return Satellite{}, err
	}
	if s.Health, err = optionalInt(rec, "health"); err != nil {
		return Satellite{}, err
	}
	return s, nil
}
