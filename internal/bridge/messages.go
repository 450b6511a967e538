package bridge

import (
	"time"

	"github.com/nerrad567/genlink-bridge/internal/discovery"
	"github.com/nerrad567/genlink-bridge/internal/generator"
)

// Payloads for Home Assistant switch and binary_sensor entities.
// payloadNone puts a switch into the unknown state.
const (
	payloadOn   = "ON"
	payloadOff  = "OFF"
	payloadNone = "None"
)

// StateMessage is the retained per-device state.
// Topic: {prefix}/{device}/state
// QoS: configured, Retained: Yes
type StateMessage struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`

	// On is null while the generator reports a fault.
	On          *bool `json:"on"`
	OutletInUse bool  `json:"outlet_in_use"`

	Running bool   `json:"running"`
	Ready   bool   `json:"ready"`
	Fault   bool   `json:"fault"`
	Status  string `json:"status"`

	Charging     bool `json:"charging"`
	BatteryLevel int  `json:"battery_level"`
	BatteryLow   bool `json:"battery_low"`

	LinkQuality int  `json:"link_quality"`
	Reachable   bool `json:"reachable"`

	SignalStrength  string `json:"signal_strength,omitempty"`
	Battery         string `json:"battery,omitempty"`
	Model           string `json:"model,omitempty"`
	SerialNumber    string `json:"serial_number,omitempty"`
	FirmwareVersion string `json:"firmware_version,omitempty"`
	Description     string `json:"description,omitempty"`
}

// NewStateMessage builds the state payload for a device's attributes.
func NewStateMessage(deviceID string, attrs generator.Attributes) StateMessage {
	msg := StateMessage{
		DeviceID:        deviceID,
		Timestamp:       time.Now().UTC(),
		OutletInUse:     attrs.OutletInUse(),
		Running:         attrs.Running,
		Ready:           attrs.Ready,
		Fault:           attrs.HasFault,
		Status:          string(attrs.Status),
		Charging:        attrs.Charging == generator.Charging,
		BatteryLevel:    attrs.BatteryLevel,
		BatteryLow:      !attrs.BatteryNormal,
		LinkQuality:     attrs.LinkQuality,
		Reachable:       attrs.Reachable,
		SignalStrength:  attrs.SignalStrength,
		Battery:         attrs.BatteryDescriptor,
		Model:           attrs.Model,
		SerialNumber:    attrs.SerialNumber,
		FirmwareVersion: attrs.FirmwareVersion,
		Description:     attrs.Description,
	}
	if on, err := attrs.On(); err == nil {
		msg.On = &on
	}
	return msg
}

// EntityConfig is a Home Assistant MQTT discovery config.
// Topic: {discovery_prefix}/{component}/{device}/{object}/config
// Retained: Yes
type EntityConfig struct {
	Name     string `json:"name"`
	UniqueID string `json:"unique_id"`
	ObjectID string `json:"object_id"`

	StateTopic          string `json:"state_topic"`
	ValueTemplate       string `json:"value_template"`
	JSONAttributesTopic string `json:"json_attributes_topic,omitempty"`

	CommandTopic string `json:"command_topic,omitempty"`
	PayloadOn    string `json:"payload_on,omitempty"`
	PayloadOff   string `json:"payload_off,omitempty"`

	DeviceClass       string `json:"device_class,omitempty"`
	EntityCategory    string `json:"entity_category,omitempty"`
	UnitOfMeasurement string `json:"unit_of_measurement,omitempty"`
	StateClass        string `json:"state_class,omitempty"`
	Icon              string `json:"icon,omitempty"`

	Availability     []Availability `json:"availability"`
	AvailabilityMode string         `json:"availability_mode,omitempty"`

	Device DeviceInfo `json:"device"`
	Origin OriginInfo `json:"origin"`
}

// Availability is one entry of an entity's availability list.
type Availability struct {
	Topic               string `json:"topic"`
	PayloadAvailable    string `json:"payload_available"`
	PayloadNotAvailable string `json:"payload_not_available"`
}

// DeviceInfo groups a generator's entities under one Home Assistant device.
type DeviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	SWVersion    string   `json:"sw_version,omitempty"`
}

// OriginInfo names the software publishing the discovery config.
type OriginInfo struct {
	Name      string `json:"name"`
	SWVersion string `json:"sw_version,omitempty"`
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy means the last cycle completed and every device published.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded means the broker link is down, the last cycle failed,
	// or some devices failed to publish.
	HealthDegraded HealthStatus = "degraded"

	// HealthStarting means no cycle has completed yet.
	HealthStarting HealthStatus = "starting"

	// HealthStopping is published once during shutdown.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage is the retained bridge summary.
// Topic: {prefix}/bridge/summary
// QoS: configured, Retained: Yes
type HealthMessage struct {
	Bridge         string        `json:"bridge"`
	Timestamp      time.Time     `json:"timestamp"`
	Status         HealthStatus  `json:"status"`
	Version        string        `json:"version"`
	UptimeSeconds  int64         `json:"uptime_seconds"`
	DevicesManaged int           `json:"devices_managed"`
	LoopState      string        `json:"loop_state,omitempty"`
	LastCycle      *CycleSummary `json:"last_cycle,omitempty"`
	Reason         string        `json:"reason,omitempty"`
}

// CycleSummary is the JSON form of a discovery.CycleReport.
type CycleSummary struct {
	discovery.CycleReport

	DurationMS int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// NewCycleSummary converts a cycle report for publishing.
func NewCycleSummary(r discovery.CycleReport) *CycleSummary {
	s := &CycleSummary{
		CycleReport: r,
		DurationMS:  r.Duration().Milliseconds(),
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}

// NewHealthMessage creates a bridge summary message.
func NewHealthMessage(bridgeID, version string, status HealthStatus, deviceCount int, startTime time.Time) HealthMessage {
	return HealthMessage{
		Bridge:         bridgeID,
		Timestamp:      time.Now().UTC(),
		Status:         status,
		Version:        version,
		UptimeSeconds:  int64(time.Since(startTime).Seconds()),
		DevicesManaged: deviceCount,
	}
}
