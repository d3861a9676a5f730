package identity_test

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/benmeehan/gpsd-agent/internal/mocks"
	"github.com/benmeehan/gpsd-agent/pkg/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestLoadDeviceInfo_Existing(t *testing.T) {
	// Setup
	fileOps := new(mocks.MockFileOperations)
	fileOps.On("ReadJsonFile", "device.json", mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*identity.Identity).ID = "rover-1"
	}).Return(nil)
	d := identity.NewDeviceInfo("device.json", fileOps)

	// Execute
	err := d.LoadDeviceInfo()

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "rover-1", d.GetDeviceID())
	fileOps.AssertNotCalled(t, "WriteJsonFile", mock.Anything, mock.Anything)
}

func TestLoadDeviceInfo_GeneratesWhenMissing(t *testing.T) {
	fileOps := new(mocks.MockFileOperations)
	fileOps.On("ReadJsonFile", "device.json", mock.Anything).Return(fmt.Errorf("open: %w", fs.ErrNotExist))
	fileOps.On("WriteJsonFile", "device.json", mock.AnythingOfType("identity.Identity")).Return(nil)
	d := identity.NewDeviceInfo("device.json", fileOps)

	err := d.LoadDeviceInfo()

	assert.NoError(t, err)
	_, parseErr := uuid.Parse(d.GetDeviceID())
	assert.NoError(t, parseErr)
	fileOps.AssertExpectations(t)
}

func TestLoadDeviceInfo_ReadError(t *testing.T) {
	fileOps := new(mocks.MockFileOperations)
	fileOps.On("ReadJsonFile", "device.json", mock.Anything).Return(errors.New("permission denied"))
	d := identity.NewDeviceInfo("device.json", fileOps)

	err := d.LoadDeviceInfo()

	assert.EqualError(t, err, "permission denied")
	assert.Empty(t, d.GetDeviceID())
}
