package location

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handshakeVersion = `{"class":"VERSION","release":"3.25"}`
	handshakeDevices = `{"class":"DEVICES","devices":[{"path":"/dev/ttyACM0","driver":"u-blox"}]}`
	handshakeWatch   = `{"class":"WATCH","enable":true}`
	activePoll       = `{"class":"POLL","active":1,"tpv":[{"mode":3,"time":"2024-05-01T10:00:00.000Z","lat":52.5,"lon":13.4,"altHAE":80,"eph":3.5}],"sky":[{"satellites":[{"PRN":3,"used":true},{"PRN":7,"used":true},{"PRN":9,"used":false}]}]}`
	inactivePoll     = `{"class":"POLL","active":0}`
)

type replayChannel struct {
	lines []string
}

func (c *replayChannel) ReadLine() ([]byte, error) {
	if len(c.lines) == 0 {
		return nil, io.EOF
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	return []byte(line), nil
}

func (c *replayChannel) WriteLine(string) error { return nil }
func (c *replayChannel) Close() error           { return nil }

// stallingChannel replays the handshake, then blocks the next read until
// release is closed.
type stallingChannel struct {
	replayChannel
	stalled chan struct{}
	release chan struct{}
}

func (c *stallingChannel) ReadLine() ([]byte, error) {
	if len(c.lines) > 0 {
		return c.replayChannel.ReadLine()
	}
	close(c.stalled)
	<-c.release
	return []byte(activePoll), nil
}

// countingDialer hands out one scripted session per dial.
type countingDialer struct {
	scripts [][]string
	calls   int
	err     error
}

func (d *countingDialer) dial(_ context.Context, _ string, _ int, opts ...gpsd.Option) (*gpsd.Session, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	script := append([]string{handshakeVersion, handshakeDevices, handshakeWatch}, d.scripts[d.calls-1]...)
	return gpsd.NewSession(&replayChannel{lines: script}, opts...)
}

func TestGPSDProvider_GetLocation(t *testing.T) {
	// Setup
	dialer := &countingDialer{scripts: [][]string{{activePoll, inactivePoll, activePoll}}}
	p := NewGPSDProvider("localhost", 2947, zerolog.Nop()).WithDialer(dialer.dial)

	// Execute
	d, err := p.GetLocation(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, gpsd.Fix3D, d.Mode)
	assert.Equal(t, 80.0, d.Geo.Altitude)
	assert.Len(t, d.UsedSatellites(), 2)

	_, err = p.GetLocation(context.Background())
	assert.ErrorIs(t, err, gpsd.ErrGPSInactive)

	_, err = p.GetLocation(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, dialer.calls)

	status := p.Status()
	assert.True(t, status.Connected)
	assert.Equal(t, "3.25", status.Release)
	assert.Equal(t, "u-blox", status.Devices[0].Driver)

	assert.NoError(t, p.Close())
	assert.False(t, p.Status().Connected)
}

func TestGPSDProvider_RedialsAfterConnectionLoss(t *testing.T) {
	dialer := &countingDialer{scripts: [][]string{{activePoll}, {activePoll}}}
	p := NewGPSDProvider("localhost", 2947, zerolog.Nop()).WithDialer(dialer.dial)

	_, err := p.GetLocation(context.Background())
	require.NoError(t, err)

	// The first script is exhausted, so the read fails.
	_, err = p.GetLocation(context.Background())
	var connErr *gpsd.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.False(t, p.Status().Connected)

	_, err = p.GetLocation(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 2, dialer.calls)
}

func TestGPSDProvider_StatusDoesNotWaitForPoll(t *testing.T) {
	ch := &stallingChannel{
		replayChannel: replayChannel{lines: []string{handshakeVersion, handshakeDevices, handshakeWatch}},
		stalled:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	dial := func(_ context.Context, _ string, _ int, opts ...gpsd.Option) (*gpsd.Session, error) {
		return gpsd.NewSession(ch, opts...)
	}
	p := NewGPSDProvider("localhost", 2947, zerolog.Nop()).WithDialer(dial)

	polled := make(chan error, 1)
	go func() {
		_, err := p.GetLocation(context.Background())
		polled <- err
	}()
	<-ch.stalled

	statusCh := make(chan Status, 1)
	go func() { statusCh <- p.Status() }()

	select {
	case status := <-statusCh:
		assert.True(t, status.Connected)
		assert.Equal(t, "3.25", status.Release)
	case <-time.After(time.Second):
		t.Fatal("Status blocked behind a stalled poll")
	}

	close(ch.release)
	require.NoError(t, <-polled)
}

func TestGPSDProvider_DialError(t *testing.T) {
	dialErr := &gpsd.ConnectionError{Op: "dial", Addr: "localhost:2947", Err: errors.New("connection refused")}
	dialer := &countingDialer{err: dialErr}
	p := NewGPSDProvider("localhost", 2947, zerolog.Nop()).WithDialer(dialer.dial)

	_, err := p.GetLocation(context.Background())

	assert.ErrorIs(t, err, dialErr)
	assert.False(t, p.Status().Connected)
	assert.Empty(t, p.Status().Devices)
	assert.NoError(t, p.Close())
}

func TestGPSDProvider_CanceledContext(t *testing.T) {
	dialer := &countingDialer{}
	p := NewGPSDProvider("localhost", 2947, zerolog.Nop()).WithDialer(dialer.dial)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.GetLocation(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, dialer.calls)
}
