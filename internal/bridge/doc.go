// Package bridge presents registry devices to Home Assistant over MQTT.
//
// Host implements device.Host. CreatePresentation only registers a device.
// The first UpdateAttributes publishes a retained discovery config for each
// entity, and every call publishes the device's state and availability:
//
//	┌──────────────┐   Host    ┌────────────┐   MQTT   ┌────────────────┐
//	│   device     │──────────▶│   bridge   │─────────▶│ Home Assistant │
//	│   Registry   │           │ (this pkg) │◀─────────│                │
//	└──────────────┘           └────────────┘  status  └────────────────┘
//
// # Entities
//
// Each generator appears as one Home Assistant device with an outlet switch,
// binary sensors for outlet-in-use, running, fault, charging, low battery and
// connectivity, and sensors for battery level, link quality and status text.
// All entities read from the single retained state topic. While the
// generator is faulted the state carries "on": null and the outlet switch
// shows unknown rather than off.
//
// # Read-only Control
//
// The outlet switch has a command topic because Home Assistant requires one,
// but generators are mirrored, never controlled. Every set request is
// rejected with ErrReadOnly and the current state is republished so the UI
// returns to the real value.
//
// # Health
//
// HealthReporter publishes a retained JSON summary after each discovery cycle
// and on a slow timer. The plain online/offline bridge status, including the
// last will, is owned by the MQTT client.
//
// # Thread Safety
//
// Host and HealthReporter are safe for concurrent use.
package bridge
