package location

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
	"github.com/rs/zerolog"
	"github.com/tarm/serial"
)

// maxSentences bounds how many NMEA lines one GetLocation call reads.
const maxSentences = 64

// ErrNoNMEAFix is returned when the receiver produced no usable GGA sentence.
var ErrNoNMEAFix = errors.New("no valid GPS data found")

// NMEAProvider reads a fix straight from a serial receiver, for hosts without gpsd.
type NMEAProvider struct {
	port     string // Serial port to which the GPS device is connected
	baudRate int    // Baud rate for the serial communication
	open     func() (io.ReadCloser, error)
	now      func() time.Time
	logger   zerolog.Logger
}

// NewNMEAProvider creates a provider reading the receiver on port.
func NewNMEAProvider(port string, baudRate int, logger zerolog.Logger) *NMEAProvider {
	p := &NMEAProvider{
		port:     port,
		baudRate: baudRate,
		now:      time.Now,
		logger:   logger,
	}
	p.open = func() (io.ReadCloser, error) {
		port, err := serial.OpenPort(&serial.Config{Name: p.port, Baud: p.baudRate, ReadTimeout: 2 * time.Second})
		if err != nil {
			return nil, err
		}
		return port, nil
	}
	return p
}

// NewNMEAReaderProvider reads sentences from an already open stream.
func NewNMEAReaderProvider(r io.ReadCloser, logger zerolog.Logger) *NMEAProvider {
	return &NMEAProvider{
		open:   func() (io.ReadCloser, error) { return r, nil },
		now:    time.Now,
		logger: logger,
	}
}

// nmeaCycle accumulates the sentences of one reporting cycle.
type nmeaCycle struct {
	gga     *nmea.GGA
	gsa     *nmea.GSA
	rmc     *nmea.RMC
	inView  []nmea.GSVInfo
	gsvDone bool
}

func (c *nmeaCycle) complete() bool {
	return c.gga != nil && c.gsa != nil && c.rmc != nil && c.gsvDone
}

// GetLocation reads sentences until it has a GGA (plus GSA, RMC and a full GSV
// set when the receiver sends them) and converts them to a gpsd.Data.
func (p *NMEAProvider) GetLocation(ctx context.Context) (*gpsd.Data, error) {
	s, err := p.open()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	var cycle nmeaCycle
	scanner := bufio.NewScanner(s)
	for i := 0; i < maxSentences && scanner.Scan(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}
		sentence, err := nmea.Parse(line)
		if err != nil {
			p.logger.Debug().Err(err).Str("line", line).Msg("Skipping NMEA sentence")
			continue
		}
		cycle.add(sentence)
		if cycle.complete() {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cycle.gga == nil {
		return nil, ErrNoNMEAFix
	}
	return cycle.data(p.now().UTC()), nil
}

func (c *nmeaCycle) add(sentence nmea.Sentence) {
	switch s := sentence.(type) {
	case nmea.GGA:
		c.gga = &s
	case nmea.GSA:
		c.gsa = &s
	case nmea.RMC:
		c.rmc = &s
	case nmea.GSV:
		if s.MessageNumber == 1 {
			c.inView = c.inView[:0]
			c.gsvDone = false
		}
		c.inView = append(c.inView, s.Info...)
		if s.MessageNumber == s.TotalMessages {
			c.gsvDone = true
		}
	}
}

// data converts the cycle. today supplies the date when no RMC was seen.
func (c *nmeaCycle) data(today time.Time) *gpsd.Data {
	d := &gpsd.Data{
		Mode: c.mode(),
		Time: c.timestamp(today),
		Geo: gpsd.Geo{
			Latitude:  c.gga.Latitude,
			Longitude: c.gga.Longitude,
			Altitude:  c.gga.Altitude,
		},
	}
	if c.rmc != nil {
		d.Geo.Speed = c.rmc.Speed * 0.514444 // knots to m/s
		d.Geo.Track = c.rmc.Course
	}
	// GGA altitude is above mean sea level; ECEF needs height above the ellipsoid.
	d.ECEF.X, d.ECEF.Y, d.ECEF.Z = gpsd.GeodeticToECEF(d.Geo.Latitude, d.Geo.Longitude, c.gga.Altitude+c.gga.Separation)
	d.ECEF.Derived = true

	used := map[int]struct{}{}
	if c.gsa != nil {
		for _, sv := range c.gsa.SV {
			if prn, err := strconv.Atoi(strings.TrimSpace(sv)); err == nil {
				used[prn] = struct{}{}
			}
		}
	}
	d.Satellites = make([]gpsd.Satellite, 0, len(c.inView))
	for _, info := range c.inView {
		prn := int(info.SVPRNNumber)
		_, isUsed := used[prn]
		d.Satellites = append(d.Satellites, gpsd.Satellite{
			PRN:            prn,
			Elevation:      float64(info.Elevation),
			Azimuth:        float64(info.Azimuth),
			SignalStrength: float64(info.SNR),
			Used:           isUsed,
		})
	}
	return d
}

func (c *nmeaCycle) mode() gpsd.Fix {
	if c.gsa != nil {
		switch c.gsa.FixType {
		case nmea.Fix3D:
			return gpsd.Fix3D
		case nmea.Fix2D:
			return gpsd.Fix2D
		case nmea.FixNone:
			return gpsd.FixNone
		}
	}
	if c.gga.FixQuality == nmea.Invalid {
		return gpsd.FixNone
	}
	return gpsd.Fix3D
}

func (c *nmeaCycle) timestamp(today time.Time) time.Time {
	t := c.gga.Time
	year, month, day := today.Date()
	if c.rmc != nil && c.rmc.Date.Valid {
		year, month, day = 2000+c.rmc.Date.YY, time.Month(c.rmc.Date.MM), c.rmc.Date.DD
	}
	return time.Date(year, month, day, t.Hour, t.Minute, t.Second, t.Millisecond*int(time.Millisecond), time.UTC)
}

// Close is a no-op; the port is opened per call.
func (p *NMEAProvider) Close() error {
	return nil
}

// Status describes the serial receiver.
func (p *NMEAProvider) Status() Status {
	return Status{Source: "nmea", Connected: true, Devices: []gpsd.Device{{Path: p.port}}}
}
