package glassgear

import (
	"strings"

	"github.com/google/uuid"
)

// DeviceInfo holds the device information service values.
type DeviceInfo struct {
	Manufacturer     string
	Model            string
	FirmwareRevision string
	HardwareRevision string
	SerialNumber     string
}

// NewDeviceInfo returns the standard identity with a freshly generated
// serial number. The serial is stable for the process lifetime only;
// real hardware derives it from the chip ID instead.
func NewDeviceInfo() DeviceInfo {
	return DeviceInfo{
		Manufacturer:     "Haivivi",
		Model:            "Glass Gear",
		FirmwareRevision: "2.3.2",
		HardwareRevision: "ESP32-S3-v1.0",
		SerialNumber:     newSerialNumber(),
	}
}

func newSerialNumber() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:12])
}
