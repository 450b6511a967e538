// Package config handles loading and validating genlink-bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Vendor account and broker passwords should be set via environment variables
//     (GENLINK_MOBILELINK_PASSWORD, GENLINK_MQTT_PASSWORD)
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	interval := cfg.GetDiscoveryInterval()
package config
