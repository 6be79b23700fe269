// Package config handles loading and validating itemstore configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Reading an optional .env file (DATABASE_URL and friends)
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Credentials (database URL passwords, MQTT passwords, InfluxDB tokens)
//     should be set via environment variables, not committed YAML
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Database.URL)
package config
