package identity

import (
	"errors"
	"os"

	"github.com/benmeehan/gpsd-agent/pkg/file"
	"github.com/google/uuid"
)

// Identity holds the device's unique identifier and other metadata.
type Identity struct {
	ID   string `json:"device_id,omitempty"`
	Name string `json:"device_name,omitempty"`
}

// DeviceInfoInterface defines methods for managing device identity.
type DeviceInfoInterface interface {
	LoadDeviceInfo() error
	GetDeviceID() string
	GetDeviceIdentity() *Identity
}

// DeviceInfo manages the device identity and its associated file operations.
type DeviceInfo struct {
	DeviceInfoFile string
	Identity       Identity
	fileOps        file.FileOperations
	newID          func() string
}

// NewDeviceInfo initializes a new DeviceInfo instance.
func NewDeviceInfo(filePath string, fileOps file.FileOperations) *DeviceInfo {
	return &DeviceInfo{
		DeviceInfoFile: filePath,
		fileOps:        fileOps,
		newID:          func() string { return uuid.New().String() },
	}
}

// LoadDeviceInfo reads the identity file. When the file is missing or holds no
// id, a random id is generated and written back.
func (d *DeviceInfo) LoadDeviceInfo() error {
	err := d.fileOps.ReadJsonFile(d.DeviceInfoFile, &d.Identity)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if d.Identity.ID != "" {
		return nil
	}

	d.Identity.ID = d.newID()
	return d.fileOps.WriteJsonFile(d.DeviceInfoFile, d.Identity)
}

// GetDeviceIdentity returns the current device Identity.
func (d *DeviceInfo) GetDeviceIdentity() *Identity {
	return &d.Identity
}

// GetDeviceID returns the current device ID.
func (d *DeviceInfo) GetDeviceID() string {
	return d.Identity.ID
}
