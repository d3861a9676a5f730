package gpsd

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoDeviceFound is returned by the handshake when gpsd reports no attached receivers.
	ErrNoDeviceFound = errors.New("no GPS device found")

	// ErrGPSInactive is returned by Poll when gpsd answers but has no active receiver.
	// The session stays usable and the caller may poll again.
	ErrGPSInactive = errors.New("GPS is not active")
)

// ConnectionError reports a transport failure while opening or using the channel.
type ConnectionError struct {
	Op   string
	Addr string
	Err  error
}

func (e *ConnectionError) Error() string {
	if e.Addr == "" {
		return fmt.Sprintf("gpsd %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("gpsd %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// UnexpectedMessageError is returned when a message does not match what the
// protocol expects at the current step. Message holds the offending record.
type UnexpectedMessageError struct {
	Expected string
	Message  map[string]any
}

func (e *UnexpectedMessageError) Error() string {
	raw, err := json.Marshal(e.Message)
	if err != nil {
		raw = []byte(fmt.Sprintf("%v", e.Message))
	}
	return fmt.Sprintf("unexpected message (expected %s): %s", e.Expected, raw)
}

// Class returns the class of the offending message, or "" when it has none.
func (e *UnexpectedMessageError) Class() string {
	class, _ := e.Message["class"].(string)
	return class
}

// DecodeError reports a protocol-valid message with a missing or ill-typed field.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %s", e.Field, e.Reason)
}

func missingField(field string) error {
	return &DecodeError{Field: field, Reason: "missing"}
}

func wrongType(field, want string, got any) error {
	return &DecodeError{Field: field, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}
