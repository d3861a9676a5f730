package gpsd

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFix(t *testing.T) {
	for mode, want := range map[string]Fix{"0": FixUnknown, "1": FixNone, "2": Fix2D, "3": Fix3D} {
		fix, err := DecodeFix(mustRecord(t, `{"mode":`+mode+`}`))
		require.NoError(t, err)
		assert.Equal(t, want, fix)
	}

	for _, line := range []string{`{}`, `{"mode":4}`, `{"mode":-1}`, `{"mode":2.5}`, `{"mode":"3"}`} {
		_, err := DecodeFix(mustRecord(t, line))
		var decodeErr *DecodeError
		assert.True(t, errors.As(err, &decodeErr), line)
	}
}

func TestFix_String(t *testing.T) {
	assert.Equal(t, "3D", Fix3D.String())
	assert.Equal(t, "no fix", FixNone.String())
	assert.Equal(t, "Fix(7)", Fix(7).String())
}

func TestFix_TextRoundTrip(t *testing.T) {
	for _, fix := range []Fix{FixUnknown, FixNone, Fix2D, Fix3D} {
		b, err := json.Marshal(fix)
		require.NoError(t, err)

		var got Fix
		require.NoError(t, json.Unmarshal(b, &got), string(b))
		assert.Equal(t, fix, got)
	}

	var f Fix
	assert.Error(t, f.UnmarshalText([]byte("4D")))
	assert.Error(t, json.Unmarshal([]byte(`"Fix(7)"`), &f))
}

func TestData_JSONRoundTrip(t *testing.T) {
	d, err := FromPollMessage(mustRecord(t, scenarioPoll))
	require.NoError(t, err)

	b, err := json.Marshal(d)
	require.NoError(t, err)

	var got Data
	require.NoError(t, json.Unmarshal(b, &got))
	assert.True(t, d.Time.Equal(got.Time))
	got.Time = d.Time
	assert.Equal(t, *d, got)
}

func TestDecodeGeo_AltitudeFallback(t *testing.T) {
	g, err := DecodeGeo(mustRecord(t, `{"lat":1,"lon":2,"altHAE":30,"altMSL":10}`))
	require.NoError(t, err)
	assert.Equal(t, 30.0, g.Altitude)

	g, err = DecodeGeo(mustRecord(t, `{"lat":1,"lon":2,"altMSL":10}`))
	require.NoError(t, err)
	assert.Equal(t, 10.0, g.Altitude)

	g, err = DecodeGeo(mustRecord(t, `{"lat":1,"lon":2}`))
	require.NoError(t, err)
	assert.Equal(t, 0.0, g.Altitude)
}

func TestDecodeGeo_Errors(t *testing.T) {
	g, err := DecodeGeo(mustRecord(t, `{"lat":1,"lon":2,"epx":3,"epy":4,"speed":1.5,"track":90}`))
	require.NoError(t, err)
	assert.Equal(t, 5.0, g.HorizontalAccuracy())
	assert.Equal(t, 1.5, g.Speed)
	assert.Equal(t, 90.0, g.Track)

	g, err = DecodeGeo(mustRecord(t, `{"lat":1,"lon":2,"eph":7,"epx":3,"epy":4}`))
	require.NoError(t, err)
	assert.Equal(t, 7.0, g.HorizontalAccuracy())

	_, err = DecodeGeo(mustRecord(t, `{"lat":1,"lon":"2"}`))
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "lon", decodeErr.Field)
}

func TestDecodeECEF(t *testing.T) {
	e, err := DecodeECEF(mustRecord(t, `{"lat":0,"lon":0,"alt":0}`))
	require.NoError(t, err)
	assert.True(t, e.Derived)
	assert.InDelta(t, wgs84A, e.X, 1e-6)
	assert.InDelta(t, 0, e.Y, 1e-6)
	assert.InDelta(t, 0, e.Z, 1e-6)

	e, err = DecodeECEF(mustRecord(t, `{"lat":90,"lon":0,"alt":0}`))
	require.NoError(t, err)
	assert.InDelta(t, wgs84A*math.Sqrt(1-wgs84E2), e.Z, 1e-3)

	e, err = DecodeECEF(mustRecord(t, `{"ecefx":-2700000.5,"ecefy":-4290000.25,"ecefz":3860000,"ecefpAcc":2.1}`))
	require.NoError(t, err)
	assert.False(t, e.Derived)
	assert.Equal(t, -2700000.5, e.X)
	assert.Equal(t, 2.1, e.PositionAccuracy)

	_, err = DecodeECEF(mustRecord(t, `{"ecefx":1,"ecefz":3}`))
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "ecefy", decodeErr.Field)
}

func TestDecodeSatellite(t *testing.T) {
	s, err := DecodeSatellite(mustRecord(t, `{"PRN":17,"el":12.5,"az":301,"ss":27,"used":false,"gnssid":0,"svid":17}`))
	require.NoError(t, err)
	assert.Equal(t, Satellite{PRN: 17, Elevation: 12.5, Azimuth: 301, SignalStrength: 27, SVID: 17}, s)

	_, err = DecodeSatellite(mustRecord(t, `{"PRN":17}`))
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "used", decodeErr.Field)
	assert.Equal(t, "missing", decodeErr.Reason)
}

func TestDecodeVersionAndDevice(t *testing.T) {
	v, err := DecodeVersion(mustRecord(t, `{"class":"VERSION","release":"3.25","rev":"3.25","proto_major":3,"proto_minor":15}`))
	require.NoError(t, err)
	assert.Equal(t, Version{Release: "3.25", Rev: "3.25", ProtoMajor: 3, ProtoMinor: 15}, v)

	d, err := DecodeDevice(mustRecord(t, `{"path":"/dev/ttyACM0","driver":"u-blox","activated":"2024-01-01T00:00:00.000Z"}`))
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyACM0", d.Path)
	assert.Equal(t, "u-blox", d.Driver)
	assert.Equal(t, "2024-01-01T00:00:00.000Z", d.Activated)
}

func TestParseRecord_Rejects(t *testing.T) {
	for _, line := range []string{``, `not json`, `[1,2]`, `null`} {
		_, err := parseRecord([]byte(line))
		var decodeErr *DecodeError
		assert.True(t, errors.As(err, &decodeErr), line)
	}
}
