package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the agent logger: JSON lines on stdout, plus a rotated file
// when logging.file is set. The returned closer releases the file.
func NewLogger(c *Config, stdout io.Writer) (zerolog.Logger, io.Closer) {
	if stdout == nil {
		stdout = os.Stdout
	}

	level, err := zerolog.ParseLevel(c.Logging.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = stdout
	var closer io.Closer = nopCloser{}
	if c.Logging.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   c.Logging.File,
			MaxSize:    c.Logging.MaxSizeMB,
			MaxBackups: c.Logging.MaxBackups,
			MaxAge:     c.Logging.MaxAgeDays,
			Compress:   c.Logging.Compress,
		}
		out = zerolog.MultiLevelWriter(stdout, rotator)
		closer = rotator
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	logger := zerolog.New(out).Level(level).With().Timestamp().Str("component", "gpsd-agent").Logger()
	return logger, closer
}
