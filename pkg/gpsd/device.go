package gpsd

// Device is one receiver listed in a DEVICES report.
type Device struct {
	Path      string `json:"path"`
	Driver    string `json:"driver,omitempty"`
	Subtype   string `json:"subtype,omitempty"`
	Activated string `json:"activated,omitempty"`
}

// DecodeDevice reads one entry of a DEVICES report.
func DecodeDevice(rec Record) (Device, error) {
	var d Device
	var err error
	if d.Path, err = optionalString(rec, "path"); err != nil {
		return Device{}, err
	}
	if d.Driver, err = optionalString(rec, "driver"); err != nil {
		return Device{}, err
	}
	if d.Subtype, err = optionalString(rec, "subtype"); err != nil {
		return Device{}, err
	}
	// "activated" is a timestamp string in current releases and a number in old ones.
	if s, ok := rec["activated"].(string); ok {
		d.Activated = s
	}
	return d, nil
}

// Version is the banner gpsd sends when a client connects.
type Version struct {
	Release    string `json:"release"`
	Rev        string `json:"rev,omitempty"`
	ProtoMajor int    `json:"proto_major"`
	ProtoMinor int    `json:"proto_minor"`
}

// DecodeVersion reads a VERSION report. All fields are optional.
func DecodeVersion(rec Record) (Version, error) {
	var v Version
	var err error
	if v.Release, err = optionalString(rec, "release"); err != nil {
		return Version{}, err
	}
	if v.Rev, err = optionalString(rec, "rev"); err != nil {
		return Version{}, err
	}
	if v.ProtoMajor, err = optionalInt(rec, "proto_major"); err != nil {
		return Version{}, err
	}
	if v.ProtoMinor, err = optionalInt(rec, "proto_minor"); err != nil {
		return Version{}, err
	}
	return v, nil
}
