// Package mqtt provides the broker connection genlink-bridge publishes through.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS and retain control
//   - Topic subscriptions, restored after reconnect
//   - Bridge availability: "online" on connect, "offline" on Close or via LWT
//   - The genlink topic layout (see Topics)
//
// # Architecture
//
//	vendor cloud → discovery loop → device registry → bridge host → MQTT broker → Home Assistant
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS=true) when the broker is not on localhost
//   - Broker credentials should come from GENLINK_MQTT_USERNAME / GENLINK_MQTT_PASSWORD
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topics := client.Topics()
//	err = client.PublishRetained(topics.DeviceState(id), payload)
package mqtt
