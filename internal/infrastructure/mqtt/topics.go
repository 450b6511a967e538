package mqtt

import (
	"fmt"
	"strings"
)

// Topic layout, relative to the configured prefix (default "genlink"):
//
//	{prefix}/bridge/status             online|offline, retained, also the LWT
//	{prefix}/bridge/summary            JSON cycle summary, retained
//	{prefix}/{device}/state            JSON attributes, retained
//	{prefix}/{device}/availability     online|offline, retained
//	{prefix}/{device}/{component}/set  inbound commands
//
// Home Assistant discovery configs live under their own prefix:
//
//	{discovery_prefix}/{component}/{device}/{object}/config
//	{discovery_prefix}/status          Home Assistant birth/will
const (
	// PayloadOnline is the availability payload for a live bridge or device.
	PayloadOnline = "online"

	// PayloadOffline is the availability payload for a dead bridge or device.
	PayloadOffline = "offline"
)

// Topics builds genlink MQTT topics for one prefix pair.
//
//	topics := mqtt.NewTopics("genlink", "homeassistant")
//	topics.DeviceState("5f0c...")
//	// Returns: "genlink/5f0c.../state"
type Topics struct {
	Prefix          string
	DiscoveryPrefix string
}

// NewTopics returns a Topics with trailing slashes trimmed from both prefixes.
func NewTopics(prefix, discoveryPrefix string) Topics {
	return Topics{
		Prefix:          strings.TrimRight(prefix, "/"),
		DiscoveryPrefix: strings.TrimRight(discoveryPrefix, "/"),
	}
}

// BridgeStatus returns the bridge availability topic.
//
// Example: genlink/bridge/status
func (t Topics) BridgeStatus() string {
	return fmt.Sprintf("%s/bridge/status", t.Prefix)
}

// BridgeSummary returns the topic carrying the last discovery cycle summary.
//
// Example: genlink/bridge/summary
func (t Topics) BridgeSummary() string {
	return fmt.Sprintf("%s/bridge/summary", t.Prefix)
}

// DeviceState returns the retained attribute state topic for a device.
//
// Example: genlink/5f0c.../state
func (t Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/%s/state", t.Prefix, deviceID)
}

// DeviceAvailability returns the availability topic for a device.
//
// Example: genlink/5f0c.../availability
func (t Topics) DeviceAvailability(deviceID string) string {
	return fmt.Sprintf("%s/%s/availability", t.Prefix, deviceID)
}

// DeviceSet returns the command topic for one writable-looking component.
//
// Example: genlink/5f0c.../outlet/set
func (t Topics) DeviceSet(deviceID, component string) string {
	return fmt.Sprintf("%s/%s/%s/set", t.Prefix, deviceID, component)
}

// AllDeviceSets returns a pattern matching every device command topic.
//
// Pattern: genlink/+/+/set
func (t Topics) AllDeviceSets() string {
	return fmt.Sprintf("%s/+/+/set", t.Prefix)
}

// ParseDeviceSet splits a command topic into device ID and component.
// It reports false for any topic AllDeviceSets would not match.
func (t Topics) ParseDeviceSet(topic string) (deviceID, component string, ok bool) {
	rest, found := strings.CutPrefix(topic, t.Prefix+"/")
	if !found {
		return "", "", false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[2] != "set" || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// Discovery returns a Home Assistant discovery config topic.
//
// Example: homeassistant/binary_sensor/5f0c.../fault/config
func (t Topics) Discovery(component, nodeID, objectID string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", t.DiscoveryPrefix, component, nodeID, objectID)
}

// DiscoveryStatus returns the topic Home Assistant announces its own
// online/offline state on.
//
// Example: homeassistant/status
func (t Topics) DiscoveryStatus() string {
	return fmt.Sprintf("%s/status", t.DiscoveryPrefix)
}
