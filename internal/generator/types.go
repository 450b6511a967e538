package generator

// Kind tags which vendor payload shape a RawStatus carries.
type Kind string

const (
	// KindFlags is the v1 payload with four indicator lights.
	KindFlags Kind = "flags"

	// KindCode is the v2 payload with a single ordinal status code.
	KindCode Kind = "code"
)

// FlagStatus is the v1 indicator-light payload.
type FlagStatus struct {
	Green  bool `json:"green"`
	Yellow bool `json:"yellow"`
	Red    bool `json:"red"`
	Blue   bool `json:"blue"`
}

// CodeStatus is the v2 ordinal payload. Code is 1-indexed into the status table.
type CodeStatus struct {
	Code int `json:"code"`
}

// RawStatus is one vendor device record as returned by a single poll.
// It is immutable once received and superseded wholesale by the next poll.
//
// Exactly one of Flags or Code is set, matching Kind.
type RawStatus struct {
	Kind Kind `json:"kind"`

	VendorID        string `json:"vendor_id"`
	Name            string `json:"name"`
	Model           string `json:"model"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`
	Description     string `json:"description,omitempty"`

	Connected      bool   `json:"connected"`
	SignalStrength string `json:"signal_strength,omitempty"`
	BatteryVoltage string `json:"battery_voltage,omitempty"`

	Flags *FlagStatus `json:"flags,omitempty"`
	Code  *CodeStatus `json:"code,omitempty"`
}

// StatusText is the normalised status category.
type StatusText string

// Status table entries, in vendor order. The v2 code N maps to entry N-1.
const (
	StatusReady              StatusText = "Ready"
	StatusRunning            StatusText = "Running"
	StatusExercising         StatusText = "Exercising"
	StatusWarning            StatusText = "Warning"
	StatusStopped            StatusText = "Stopped"
	StatusCommunicationIssue StatusText = "Communication Issue"
	StatusUnknown            StatusText = "Unknown"

	// StatusFault labels a v1 payload with the red indicator lit.
	StatusFault StatusText = "Fault"
)

// statusTable is the fixed v2 lookup table. Out-of-range codes clamp to the last entry.
var statusTable = []StatusText{
	StatusReady,
	StatusRunning,
	StatusExercising,
	StatusWarning,
	StatusStopped,
	StatusCommunicationIssue,
	StatusUnknown,
}

// ChargingState mirrors the battery charging characteristic.
type ChargingState string

const (
	Charging    ChargingState = "CHARGING"
	NotCharging ChargingState = "NOT_CHARGING"
)

// Battery levels. The vendor only reports good/not-good, so the level is binary.
const (
	BatteryFull  = 100
	BatteryEmpty = 0
)

// Link quality band limits.
const (
	MinLinkQuality = 1
	MaxLinkQuality = 4
)

// Attributes is the normalised, publishable view of a device.
type Attributes struct {
	HasFault bool       `json:"fault"`
	Running  bool       `json:"running"`
	Ready    bool       `json:"ready"`
	Status   StatusText `json:"status"`

	BatteryLevel  int           `json:"battery_level"`
	BatteryNormal bool          `json:"battery_normal"`
	Charging      ChargingState `json:"charging"`
	LinkQuality   int           `json:"link_quality"`
	Reachable     bool          `json:"reachable"`

	DisplayName     string `json:"name"`
	Model           string `json:"model"`
	SerialNumber    string `json:"serial_number"`
	FirmwareVersion string `json:"firmware_version"`

	// Raw descriptors kept for change detection.
	SignalStrength    string `json:"signal_strength"`
	BatteryDescriptor string `json:"battery_descriptor"`

	Description string `json:"description,omitempty"`
}

// On reports whether the generator can be treated as a powered outlet.
// It returns ErrServiceFault when the device is faulted.
func (a Attributes) On() (bool, error) {
	if a.HasFault {
		return false, ErrServiceFault
	}
	return a.Ready || a.Running, nil
}

// OutletInUse reports whether the generator is currently producing power.
func (a Attributes) OutletInUse() bool {
	return a.Running
}
