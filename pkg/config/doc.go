// Package config provides application configuration from an optional YAML
// file and environment variables.
//
// # Sources
//
// Values are layered in this order, later sources winning:
//
//  1. built-in defaults
//  2. config.yaml in the data directory
//  3. environment variables
//
// # Environment
//
//	OMNIVERLAY_DATA_DIR="~/.omniverlay"
//	OMNIVERLAY_LOG_LEVEL="info"  # debug, info, warn, error
//	OMNIVERLAY_LOCK_TIMEOUT="5s"
//	OMNIVERLAY_DEFAULT_PROFILE="default"
//	OMNIVERLAY_DEFAULT_LAYOUT="default"
//	OMNIVERLAY_WATCH_ENABLED="true"
//	OMNIVERLAY_METRICS_ENABLED="true"
//	OMNIVERLAY_CACHE_ENABLED="true"
//	OMNIVERLAY_CACHE_SIZE="64"
//	OMNIVERLAY_CACHE_TTL="5m"
//
// # File
//
//	log_level: debug
//	lock_timeout: 2s
//	default_profile: work
//	default_layout: laptop
//	watch: true
//	metrics: false
//	cache:
//	  enabled: true
//	  size: 128
//	  ttl: 1m
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	fmt.Printf("Data: %s\n", cfg.DataDir)
//	fmt.Printf("Log level: %s\n", cfg.Observability.LogLevel)
package config
