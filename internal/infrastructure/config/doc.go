// Package config handles loading and validating the input core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with INPUTCORE_* environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via
//     environment variables
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load(config.Path())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Input.SchemaFile)
package config
