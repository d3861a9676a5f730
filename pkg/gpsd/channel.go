package gpsd

import (
	"bufio"
	"errors"
	"io"
	"net"
	"time"
)

// Channel is a bidirectional newline-framed text stream to gpsd.
type Channel interface {
	// ReadLine blocks until one full line has been read and returns it
	// without the trailing newline.
	ReadLine() ([]byte, error)
	// WriteLine writes line followed by a newline and flushes it.
	WriteLine(line string) error
	Close() error
}

// LineChannel frames a byte stream into lines. Writes are flushed per line so
// no command is held in a buffer across calls.
type LineChannel struct {
	conn        io.ReadWriteCloser
	reader      *bufio.Reader
	writer      *bufio.Writer
	readTimeout time.Duration
}

// NewLineChannel wraps conn. A positive readTimeout sets a read deadline before
// every read when conn is a net.Conn.
func NewLineChannel(conn io.ReadWriteCloser, readTimeout time.Duration) *LineChannel {
	return &LineChannel{
		conn:        conn,
		reader:      bufio.NewReader(conn),
		writer:      bufio.NewWriter(conn),
		readTimeout: readTimeout,
	}
}

// ReadLine reads up to and including the next newline.
func (c *LineChannel) ReadLine() ([]byte, error) {
	if nc, ok := c.conn.(net.Conn); ok && c.readTimeout > 0 {
		if err := nc.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return nil, err
		}
	}
	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return line[:len(line)-1], nil
}

// WriteLine sends one line and flushes it.
func (c *LineChannel) WriteLine(line string) error {
	if _, err := c.writer.WriteString(line + "\n"); err != nil {
		return err
	}
	return c.writer.Flush()
}

// Close closes the underlying connection.
func (c *LineChannel) Close() error {
	return c.conn.Close()
}
