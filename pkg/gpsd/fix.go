package gpsd

import "fmt"

// Fix is the quality of the current position solution, using gpsd's mode codes.
type Fix int

const (
	FixUnknown Fix = 0
	FixNone    Fix = 1
	Fix2D      Fix = 2
	Fix3D      Fix = 3
)

func (f Fix) String() string {
	switch f {
	case FixUnknown:
		return "unknown"
	case FixNone:
		return "no fix"
	case Fix2D:
		return "2D"
	case Fix3D:
		return "3D"
	default:
		return fmt.Sprintf("Fix(%d)", int(f))
	}
}

// Valid reports whether f is one of gpsd's mode codes.
func (f Fix) Valid() bool {
	return f >= FixUnknown && f <= Fix3D
}

// MarshalText renders the fix as its name.
func (f Fix) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (f *Fix) UnmarshalText(b []byte) error {
	for _, fix := range []Fix{FixUnknown, FixNone, Fix2D, Fix3D} {
		if string(b) == fix.String() {
			*f = fix
			return nil
		}
	}
	return fmt.Errorf("unknown fix %q", b)
}

// DecodeFix reads the "mode" key of a TPV record.
func DecodeFix(rec Record) (Fix, error) {
	mode, ok, err := intField(rec, "mode")
	if err != nil {
		return FixUnknown, err
	}
	if !ok {
		return FixUnknown, missingField("mode")
	}
	fix := Fix(mode)
	if !fix.Valid() {
		return FixUnknown, &DecodeError{Field: "mode", Reason: fmt.Sprintf("unknown fix mode %d", mode)}
	}
	return fix, nil
}
