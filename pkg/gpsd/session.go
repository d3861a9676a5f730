package gpsd

import (
	"context"
	"errors"
	"net"
	"strconv"

	"github.com/rs/zerolog"
)

const (
	watchCommand = `?WATCH={"enable":true}`
	pollCommand  = "?POLL;"
)

// Message classes the session handles.
const (
	ClassVersion = "VERSION"
	ClassDevices = "DEVICES"
	ClassWatch   = "WATCH"
	ClassPoll    = "POLL"
)

// ErrSessionClosed is wrapped in a ConnectionError when Poll is called on a
// session whose channel is gone.
var ErrSessionClosed = errors.New("session closed")

// State is the position of a Session in the handshake and poll cycle.
type State int

const (
	StateConnecting State = iota
	StateAwaitingVersion
	StateAwaitingWatchAck
	StateReady
	StatePolling
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAwaitingVersion:
		return "awaiting-version"
	case StateAwaitingWatchAck:
		return "awaiting-watch-ack"
	case StateReady:
		return "ready"
	case StatePolling:
		return "polling"
	case StateClosed:
		return "closed"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}

// Session is a gpsd client connection that has completed the watch handshake.
//
// A Session is not safe for concurrent use: the protocol has no request ids,
// so callers sharing one must serialize Poll.
type Session struct {
	ch     Channel
	addr   string
	opts   options
	logger zerolog.Logger

	state   State
	version Version
	devices []Device
}

// Dial connects to gpsd at host:port and performs the handshake. An empty host
// and a zero port select DefaultHost and DefaultPort.
func Dial(ctx context.Context, host string, port int, opts ...Option) (*Session, error) {
	if host == "" {
		host = DefaultHost
	}
	if port == 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	dialer := &net.Dialer{Timeout: o.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", Addr: addr, Err: err}
	}

	s := newSession(NewLineChannel(conn, o.readTimeout), addr, o)
	if err := s.handshake(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// NewSession performs the handshake over an already open channel. The session
// takes ownership of ch and closes it if the handshake fails.
func NewSession(ch Channel, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	s := newSession(ch, "", o)
	if err := s.handshake(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func newSession(ch Channel, addr string, o options) *Session {
	logger := o.logger
	if addr != "" {
		logger = logger.With().Str("gpsd", addr).Logger()
	}
	return &Session{
		ch:      ch,
		addr:    addr,
		opts:    o,
		logger:  logger,
		state:   StateConnecting,
		devices: []Device{},
	}
}

func (s *Session) handshake() error {
	s.state = StateAwaitingVersion
	msg, err := s.read()
	if err != nil {
		return err
	}
	if classOf(msg) != ClassVersion {
		return &UnexpectedMessageError{Expected: ClassVersion, Message: msg}
	}
	if s.version, err = DecodeVersion(msg); err != nil {
		return err
	}

	if err := s.write(watchCommand); err != nil {
		return err
	}
	s.state = StateAwaitingWatchAck

	switch s.opts.policy {
	case HandshakeLenient:
		err = s.awaitWatchAckLenient()
	default:
		err = s.awaitWatchAckStrict()
	}
	if err != nil {
		return err
	}

	s.state = StateReady
	s.logger.Info().
		Str("release", s.version.Release).
		Int("devices", len(s.devices)).
		Str("policy", s.opts.policy.String()).
		Msg("gpsd handshake complete")
	return nil
}

func (s *Session) awaitWatchAckStrict() error {
	msg, err := s.read()
	if err != nil {
		return err
	}
	if classOf(msg) != ClassDevices {
		return &UnexpectedMessageError{Expected: ClassDevices, Message: msg}
	}
	if err := s.recordDevices(msg); err != nil {
		return err
	}

	msg, err = s.read()
	if err != nil {
		return err
	}
	if classOf(msg) != ClassWatch {
		return &UnexpectedMessageError{Expected: ClassWatch, Message: msg}
	}
	return checkWatch(msg)
}

func (s *Session) awaitWatchAckLenient() error {
	var seenDevices, seenWatch bool
	var last Record
	for i := 0; i < MaxHandshakeLines; i++ {
		msg, err := s.read()
		if err != nil {
			return err
		}
		last = msg

		switch classOf(msg) {
		case ClassDevices:
			if err := s.recordDevices(msg); err != nil {
				return err
			}
			seenDevices = true
		case ClassWatch:
			if err := checkWatch(msg); err != nil {
				return err
			}
			seenWatch = true
		default:
			s.logger.Debug().Str("class", classOf(msg)).Msg("skipping message during handshake")
		}

		if seenDevices && seenWatch {
			return nil
		}
	}
	return &UnexpectedMessageError{Expected: ClassDevices + " and " + ClassWatch, Message: last}
}

func (s *Session) recordDevices(msg Record) error {
	list, err := objectList(msg, "devices", false)
	if err != nil {
		return err
	}
	devices := make([]Device, 0, len(list))
	for _, rec := range list {
		d, err := DecodeDevice(rec)
		if err != nil {
			return err
		}
		devices = append(devices, d)
	}
	s.devices = devices
	if len(devices) == 0 {
		return ErrNoDeviceFound
	}
	return nil
}

func checkWatch(msg Record) error {
	if !truthy(msg["enable"]) {
		return &UnexpectedMessageError{Expected: ClassWatch + " enabled", Message: msg}
	}
	return nil
}

// Poll requests the current fix and decodes the reply.
//
// ErrGPSInactive leaves the session ready for another Poll. A ConnectionError
// closes it.
func (s *Session) Poll() (*Data, error) {
	if s.state != StateReady {
		return nil, &ConnectionError{Op: "poll", Addr: s.addr, Err: ErrSessionClosed}
	}

	if err := s.write(pollCommand); err != nil {
		return nil, err
	}
	s.state = StatePolling

	msg, err := s.read()
	if s.state == StatePolling {
		s.state = StateReady
	}
	if err != nil {
		return nil, err
	}

	if classOf(msg) != ClassPoll {
		return nil, &UnexpectedMessageError{Expected: ClassPoll, Message: msg}
	}
	if !truthy(msg["active"]) {
		return nil, ErrGPSInactive
	}
	return FromPollMessage(msg)
}

// Devices returns the receivers reported during the handshake.
func (s *Session) Devices() []Device {
	out := make([]Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// Version returns the VERSION banner.
func (s *Session) Version() Version {
	return s.version
}

// State returns the current protocol state.
func (s *Session) State() State {
	return s.state
}

// Addr returns the dialled address, or "" for sessions built with NewSession.
func (s *Session) Addr() string {
	return s.addr
}

// Close closes the channel. No message is sent to gpsd.
func (s *Session) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	return s.ch.Close()
}

func (s *Session) read() (Record, error) {
	line, err := s.ch.ReadLine()
	if err != nil {
		s.fail()
		return nil, &ConnectionError{Op: "read", Addr: s.addr, Err: err}
	}
	s.logger.Debug().Bytes("line", line).Msg("gpsd recv")
	return parseRecord(line)
}

func (s *Session) write(line string) error {
	s.logger.Debug().Str("line", line).Msg("gpsd send")
	if err := s.ch.WriteLine(line); err != nil {
		s.fail()
		return &ConnectionError{Op: "write", Addr: s.addr, Err: err}
	}
	return nil
}

// fail closes the channel after a transport error.
func (s *Session) fail() {
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	if err := s.ch.Close(); err != nil {
		s.logger.Debug().Err(err).Msg("closing gpsd channel")
	}
}
