package bridge

import (
	"fmt"

	"github.com/nerrad567/genlink-bridge/internal/generator"
	"github.com/nerrad567/genlink-bridge/internal/infrastructure/mqtt"
)

// Home Assistant component types.
const (
	componentSwitch       = "switch"
	componentBinarySensor = "binary_sensor"
	componentSensor       = "sensor"
)

// outletComponent is the set-topic component name for the outlet switch.
const outletComponent = "outlet"

// entity describes one Home Assistant entity derived from the state payload.
type entity struct {
	component string
	object    string
	name      string

	// field is the StateMessage JSON key the entity reads.
	field string

	deviceClass string
	category    string
	unit        string
	stateClass  string
	icon        string

	// command exposes a set topic. Every set request is rejected.
	command bool

	// nullable renders a null field as Home Assistant's unknown state
	// instead of off.
	nullable bool

	// bridgeOnly ignores device availability so the entity can report
	// an unreachable generator instead of going unavailable.
	bridgeOnly bool
}

// entities is the fixed set announced for every generator.
var entities = []entity{
	{component: componentSwitch, object: outletComponent, name: "Outlet", field: "on", icon: "mdi:power-socket", command: true, nullable: true},
	{component: componentBinarySensor, object: "outlet_in_use", name: "Outlet in use", field: "outlet_in_use", deviceClass: "power"},
	{component: componentBinarySensor, object: "running", name: "Running", field: "running", deviceClass: "running"},
	{component: componentBinarySensor, object: "fault", name: "Fault", field: "fault", deviceClass: "problem"},
	{component: componentBinarySensor, object: "charging", name: "Charging", field: "charging", deviceClass: "battery_charging"},
	{component: componentBinarySensor, object: "battery_low", name: "Battery low", field: "battery_low", deviceClass: "battery"},
	{component: componentBinarySensor, object: "connectivity", name: "Connectivity", field: "reachable", deviceClass: "connectivity", category: "diagnostic", bridgeOnly: true},
	{component: componentSensor, object: "battery_level", name: "Battery", field: "battery_level", deviceClass: "battery", unit: "%", stateClass: "measurement"},
	{component: componentSensor, object: "link_quality", name: "Link quality", field: "link_quality", category: "diagnostic", stateClass: "measurement", icon: "mdi:signal"},
	{component: componentSensor, object: "status", name: "Status", field: "status", icon: "mdi:engine"},
}

// deviceKey is the part of DeviceInfo that can change after the first announce.
type deviceKey struct {
	name     string
	model    string
	serial   string
	firmware string
}

func deviceKeyFor(name string, attrs *generator.Attributes) deviceKey {
	k := deviceKey{name: name}
	if attrs != nil {
		if attrs.DisplayName != "" {
			k.name = attrs.DisplayName
		}
		k.model = attrs.Model
		k.serial = attrs.SerialNumber
		k.firmware = attrs.FirmwareVersion
	}
	return k
}

// discoveryConfig pairs a discovery topic with its payload.
type discoveryConfig struct {
	topic  string
	config EntityConfig
}

// entityConfigs builds every discovery config for one device.
func (h *Host) entityConfigs(deviceID string, key deviceKey) []discoveryConfig {
	stateTopic := h.topics.DeviceState(deviceID)
	bridgeAvail := Availability{
		Topic:               h.topics.BridgeStatus(),
		PayloadAvailable:    mqtt.PayloadOnline,
		PayloadNotAvailable: mqtt.PayloadOffline,
	}
	deviceAvail := Availability{
		Topic:               h.topics.DeviceAvailability(deviceID),
		PayloadAvailable:    mqtt.PayloadOnline,
		PayloadNotAvailable: mqtt.PayloadOffline,
	}
	info := DeviceInfo{
		Identifiers:  []string{"genlink_" + deviceID},
		Name:         key.name,
		Manufacturer: h.manufacturer,
		Model:        key.model,
		SerialNumber: key.serial,
		SWVersion:    key.firmware,
	}
	origin := OriginInfo{Name: "genlink-bridge", SWVersion: h.version}

	out := make([]discoveryConfig, 0, len(entities))
	for _, e := range entities {
		cfg := EntityConfig{
			Name:              e.name,
			UniqueID:          fmt.Sprintf("genlink_%s_%s", deviceID, e.object),
			ObjectID:          fmt.Sprintf("genlink_%s_%s", deviceID, e.object),
			StateTopic:        stateTopic,
			DeviceClass:       e.deviceClass,
			EntityCategory:    e.category,
			UnitOfMeasurement: e.unit,
			StateClass:        e.stateClass,
			Icon:              e.icon,
			Device:            info,
			Origin:            origin,
		}

		switch {
		case e.component == componentSensor:
			cfg.ValueTemplate = fmt.Sprintf("{{ value_json.%s }}", e.field)
		case e.nullable:
			cfg.ValueTemplate = fmt.Sprintf("{{ '%s' if value_json.%s else ('%s' if value_json.%s == false else '%s') }}",
				payloadOn, e.field, payloadOff, e.field, payloadNone)
			cfg.PayloadOn = payloadOn
			cfg.PayloadOff = payloadOff
		default:
			cfg.ValueTemplate = fmt.Sprintf("{{ '%s' if value_json.%s else '%s' }}", payloadOn, e.field, payloadOff)
			cfg.PayloadOn = payloadOn
			cfg.PayloadOff = payloadOff
		}

		if e.object == "status" {
			cfg.JSONAttributesTopic = stateTopic
		}

		if e.command {
			cfg.CommandTopic = h.topics.DeviceSet(deviceID, e.object)
		}

		if e.bridgeOnly {
			cfg.Availability = []Availability{bridgeAvail}
		} else {
			cfg.Availability = []Availability{bridgeAvail, deviceAvail}
			cfg.AvailabilityMode = "all"
		}

		out = append(out, discoveryConfig{
			topic: h.topics.Discovery(e.component, deviceID, e.object),
			config: cfg,
		})
	}
	return out
}
