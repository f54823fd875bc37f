// Package config loads grnbind settings from a YAML file and the
// environment.
//
// File format (grnbind.yaml):
//
//	database: ./search.db
//	lock:
//	  timeout: 500ms
//	  poll_interval: 1ms
//	log:
//	  level: debug   # debug, info, warn, error
//	  format: json   # text, json
//
// Precedence, lowest first: defaults, file, environment
// (GRNBIND_DATABASE, GRNBIND_LOG_LEVEL), command-line flags. Flags are
// applied by the CLI after Load returns.
package config
