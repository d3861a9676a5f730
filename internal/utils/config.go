package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/gpsd-agent/pkg/file"
	"github.com/benmeehan/gpsd-agent/pkg/gpsd"
)

// Location sources.
const (
	SourceGPSD = "gpsd"
	SourceNMEA = "nmea"
)

// Config represents the structure of the configuration file.
type Config struct {
	GPSD struct {
		Host            string        `yaml:"host"`             // gpsd host
		Port            int           `yaml:"port"`             // gpsd port
		HandshakePolicy string        `yaml:"handshake_policy"` // "strict" or "lenient"
		DialTimeout     time.Duration `yaml:"dial_timeout"`     // Timeout for the TCP connect
		ReadTimeout     time.Duration `yaml:"read_timeout"`     // Per-read deadline, 0 blocks
	} `yaml:"gpsd"`

	MQTT struct {
		Broker         string        `yaml:"broker"`          // MQTT broker address
		ClientID       string        `yaml:"client_id"`       // MQTT client ID prefix
		CACertificate  string        `yaml:"ca_certificate"`  // Path to the CA certificate, enables TLS
		Username       string        `yaml:"username"`        // Broker username
		Password       string        `yaml:"password"`        // Broker password
		ConnectTimeout time.Duration `yaml:"connect_timeout"` // Timeout for the broker connect
	} `yaml:"mqtt"`

	Identity struct {
		DeviceFile string `yaml:"device_file"` // Path to the device identity file
	} `yaml:"identity"`

	Logging struct {
		Level      string `yaml:"level"`        // zerolog level name
		File       string `yaml:"file"`         // Optional rotated log file
		MaxSizeMB  int    `yaml:"max_size_mb"`  // Rotate after this many megabytes
		MaxBackups int    `yaml:"max_backups"`  // Rotated files to keep
		MaxAgeDays int    `yaml:"max_age_days"` // Days to keep rotated files
		Compress   bool   `yaml:"compress"`     // Gzip rotated files
	} `yaml:"logging"`

	Services struct {
		Location struct {
			Topic             string        `yaml:"topic"`           // MQTT topic for location service
			Enabled           bool          `yaml:"enabled"`         // Enable/disable location service
			Interval          time.Duration `yaml:"interval"`        // Interval between polls
			Timeout           time.Duration `yaml:"timeout"`         // Upper bound for one poll
			QOS               int           `yaml:"qos"`             // MQTT QoS level for location messages
			Source            string        `yaml:"source"`          // "gpsd" or "nmea"
			GPSDevicePort     string        `yaml:"gps_device_port"` // Serial port for the nmea source
			GPSDeviceBaudRate int           `yaml:"gps_baud_rate"`   // Baud rate for the nmea source
		} `yaml:"location"`

		Status struct {
			Topic    string        `yaml:"topic"`    // MQTT topic for receiver status
			Enabled  bool          `yaml:"enabled"`  // Enable/disable status service
			Interval time.Duration `yaml:"interval"` // Interval between status messages
			QOS      int           `yaml:"qos"`      // MQTT QoS level for status messages
			Retained bool          `yaml:"retained"` // Publish status as a retained message
		} `yaml:"status"`
	} `yaml:"services"`
}

// LoadConfig loads the YAML configuration from the specified file, fills in
// defaults and validates the result.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", filename, err)
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.GPSD.Host == "" {
		c.GPSD.Host = gpsd.DefaultHost
	}
	if c.GPSD.Port == 0 {
		c.GPSD.Port = gpsd.DefaultPort
	}
	if c.GPSD.DialTimeout == 0 {
		c.GPSD.DialTimeout = 5 * time.Second
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "gpsd-agent"
	}
	if c.MQTT.ConnectTimeout == 0 {
		c.MQTT.ConnectTimeout = 10 * time.Second
	}
	if c.Identity.DeviceFile == "" {
		c.Identity.DeviceFile = "device.json"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 10
	}

	loc := &c.Services.Location
	if loc.Topic == "" {
		loc.Topic = "gpsd-agent/location"
	}
	if loc.Interval == 0 {
		loc.Interval = 10 * time.Second
	}
	if loc.Timeout == 0 {
		loc.Timeout = 5 * time.Second
	}
	if loc.Source == "" {
		loc.Source = SourceGPSD
	}
	if loc.GPSDeviceBaudRate == 0 {
		loc.GPSDeviceBaudRate = 9600
	}

	status := &c.Services.Status
	if status.Topic == "" {
		status.Topic = "gpsd-agent/status"
	}
	if status.Interval == 0 {
		status.Interval = time.Minute
	}
}

// Validate reports every problem found in the configuration.
func (c *Config) Validate() error {
	var errs []error

	if c.GPSD.Port < 1 || c.GPSD.Port > 65535 {
		errs = append(errs, fmt.Errorf("gpsd.port %d out of range", c.GPSD.Port))
	}
	if _, ok := gpsd.ParseHandshakePolicy(c.GPSD.HandshakePolicy); !ok {
		errs = append(errs, fmt.Errorf("gpsd.handshake_policy %q must be strict or lenient", c.GPSD.HandshakePolicy))
	}
	if c.GPSD.ReadTimeout < 0 {
		errs = append(errs, errors.New("gpsd.read_timeout must not be negative"))
	}

	loc := c.Services.Location
	status := c.Services.Status
	if (loc.Enabled || status.Enabled) && c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required when a service is enabled"))
	}
	if loc.Enabled {
		if loc.Interval <= 0 {
			errs = append(errs, errors.New("services.location.interval must be positive"))
		}
		if loc.QOS < 0 || loc.QOS > 2 {
			errs = append(errs, fmt.Errorf("services.location.qos %d must be 0, 1 or 2", loc.QOS))
		}
	}
	switch loc.Source {
	case SourceGPSD:
	case SourceNMEA:
		if loc.GPSDevicePort == "" {
			errs = append(errs, errors.New("services.location.gps_device_port is required for the nmea source"))
		}
	default:
		errs = append(errs, fmt.Errorf("services.location.source %q must be gpsd or nmea", loc.Source))
	}
	if status.Enabled {
		if status.Interval <= 0 {
			errs = append(errs, errors.New("services.status.interval must be positive"))
		}
		if status.QOS < 0 || status.QOS > 2 {
			errs = append(errs, fmt.Errorf("services.status.qos %d must be 0, 1 or 2", status.QOS))
		}
	}

	return errors.Join(errs...)
}

// GPSDOptions translates the gpsd section into session options.
func (c *Config) GPSDOptions() []gpsd.Option {
	policy, _ := gpsd.ParseHandshakePolicy(c.GPSD.HandshakePolicy)
	return []gpsd.Option{
		gpsd.WithHandshakePolicy(policy),
		gpsd.WithDialTimeout(c.GPSD.DialTimeout),
		gpsd.WithReadTimeout(c.GPSD.ReadTimeout),
	}
}
