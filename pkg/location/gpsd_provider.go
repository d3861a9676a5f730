package location

import (
	"context"
	"errors"
	"sync"

	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
	"github.com/rs/zerolog"
)

// DialFunc opens a gpsd session.
type DialFunc func(ctx context.Context, host string, port int, opts ...gpsd.Option) (*gpsd.Session, error)

// GPSDProvider polls a gpsd daemon for fixes. The session is opened on first
// use and dropped after a transport failure so the next call dials again.
type GPSDProvider struct {
	host string
	port int
	opts []gpsd.Option
	dial DialFunc

	logger zerolog.Logger

	// mu serializes polls. statusMu guards status alone so Status never
	// waits on a blocked Poll.
	mu       sync.Mutex
	session  *gpsd.Session
	statusMu sync.Mutex
	status   Status
}

// NewGPSDProvider creates a provider for the gpsd instance at host:port.
func NewGPSDProvider(host string, port int, logger zerolog.Logger, opts ...gpsd.Option) *GPSDProvider {
	return &GPSDProvider{
		host:   host,
		port:   port,
		opts:   append([]gpsd.Option{gpsd.WithLogger(logger)}, opts...),
		dial:   gpsd.Dial,
		logger: logger,
		status: Status{Source: "gpsd", Devices: []gpsd.Device{}},
	}
}

// WithDialer replaces the function used to open sessions.
func (p *GPSDProvider) WithDialer(dial DialFunc) *GPSDProvider {
	p.dial = dial
	return p
}

// GetLocation polls gpsd once. gpsd.ErrGPSInactive is returned unchanged so
// callers can tell a missing fix from a fault.
func (p *GPSDProvider) GetLocation(ctx context.Context) (*gpsd.Data, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if p.session == nil {
		session, err := p.dial(ctx, p.host, p.port, p.opts...)
		if err != nil {
			p.logger.Error().Err(err).Str("host", p.host).Int("port", p.port).Msg("Failed to open gpsd session")
			return nil, err
		}
		p.session = session
		p.setStatus(func(s *Status) {
			s.Connected = true
			s.Release = session.Version().Release
			s.Devices = session.Devices()
		})
	}

	data, err := p.session.Poll()
	var connErr *gpsd.ConnectionError
	if errors.As(err, &connErr) {
		p.logger.Warn().Err(err).Msg("gpsd connection lost")
		p.dropSession()
	}
	return data, err
}

// Status returns what is known about the gpsd receiver.
func (p *GPSDProvider) Status() Status {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()

	out := p.status
	out.Devices = make([]gpsd.Device, len(p.status.Devices))
	copy(out.Devices, p.status.Devices)
	return out
}

// Close closes the session if one is open.
func (p *GPSDProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session == nil {
		return nil
	}
	err := p.session.Close()
	p.session = nil
	p.setStatus(func(s *Status) { s.Connected = false })
	return err
}

func (p *GPSDProvider) dropSession() {
	_ = p.session.Close()
	p.session = nil
	p.setStatus(func(s *Status) { s.Connected = false })
}

func (p *GPSDProvider) setStatus(update func(*Status)) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	update(&p.status)
}
