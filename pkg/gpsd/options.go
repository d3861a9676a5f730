package gpsd

import (
	"time"

	"github.com/rs/zerolog"
)

// HandshakePolicy decides how strictly the DEVICES and WATCH replies to the
// watch command are matched.
type HandshakePolicy int

const (
	// HandshakeStrict expects exactly DEVICES then WATCH and fails on anything else.
	HandshakeStrict HandshakePolicy = iota
	// HandshakeLenient accepts DEVICES and WATCH in either order and skips other
	// classes, reading at most MaxHandshakeLines lines.
	HandshakeLenient
)

func (p HandshakePolicy) String() string {
	switch p {
	case HandshakeStrict:
		return "strict"
	case HandshakeLenient:
		return "lenient"
	default:
		return "unknown"
	}
}

// ParseHandshakePolicy maps a configuration value to a policy. Empty means strict.
func ParseHandshakePolicy(s string) (HandshakePolicy, bool) {
	switch s {
	case "", "strict":
		return HandshakeStrict, true
	case "lenient":
		return HandshakeLenient, true
	default:
		return HandshakeStrict, false
	}
}

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 2947

	// MaxHandshakeLines bounds how many lines the lenient handshake reads
	// while waiting for DEVICES and WATCH.
	MaxHandshakeLines = 16

	defaultDialTimeout = 5 * time.Second
)

type options struct {
	logger      zerolog.Logger
	policy      HandshakePolicy
	dialTimeout time.Duration
	readTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:      zerolog.Nop(),
		policy:      HandshakeStrict,
		dialTimeout: defaultDialTimeout,
	}
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the logger used for protocol traces.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHandshakePolicy selects strict or lenient handshake matching.
func WithHandshakePolicy(policy HandshakePolicy) Option {
	return func(o *options) {
		o.policy = policy
	}
}

// WithDialTimeout bounds the TCP connect in Dial.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = d
	}
}

// WithReadTimeout sets a deadline on every read of a dialled connection.
// Zero, the default, blocks until gpsd answers.
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		o.readTimeout = d
	}
}
