// Package config loads runtime configuration for the accountlink CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. ACCOUNTLINK_* environment variables.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   base URL of the account API
//	-d string   path of the local SQLite database
//	-t int      token verification timeout at start-up (seconds)
//
// # JSON schema
//
// Durations accept strings like "5s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080",
//	  "database_path": "accountlink.db",
//	  "key_file_path": "accountlink.key",
//	  "request_timeout": "10s",
//	  "verify_timeout": "5s",
//	  "update_check_timeout": "2s",
//	  "debug": false
//	}
//
// The passphrase protecting the local key is read from the environment only:
// set ACCOUNTLINK_PASSPHRASE.
package config
