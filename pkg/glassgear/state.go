package glassgear

import "encoding/json"

// DeviceState represents the coarse device lifecycle state.
type DeviceState int

const (
	StateUnknown DeviceState = iota
	StateBooting
	StateActive
	StateShuttingDown
	StateOff
)

// String returns the string representation of the state.
func (s DeviceState) String() string {
	switch s {
	case StateBooting:
		return "booting"
	case StateActive:
		return "active"
	case StateShuttingDown:
		return "shutting_down"
	case StateOff:
		return "off"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler.
func (s DeviceState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *DeviceState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "booting":
		*s = StateBooting
	case "active":
		*s = StateActive
	case "shutting_down":
		*s = StateShuttingDown
	case "off":
		*s = StateOff
	default:
		*s = StateUnknown
	}
	return nil
}

// PowerMode is the CPU rate mode.
type PowerMode int

const (
	PowerActive PowerMode = iota
	PowerSave
)

// String returns the string representation of the mode.
func (m PowerMode) String() string {
	switch m {
	case PowerActive:
		return "active"
	case PowerSave:
		return "power_save"
	default:
		return "unknown"
	}
}
