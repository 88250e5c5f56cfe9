// Package config loads runtime configuration for the gistkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c/-config or the
//     GISTKEEPER_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// # JSON schema
//
//	{
//	  "database_path": "kb.db",
//	  "backend": "gist",
//	  "gist_id": "aa5a315d61ae9438b18d",
//	  "poll_interval": "5m",
//	  "request_timeout": "30s",
//	  "max_retries": 3,
//	  "equality": "hash",
//	  "auto_sync": true,
//	  "log_file": "/tmp/gistkeeper.log"
//	}
//
// The gist token is normally kept in the encrypted credential store rather
// than in the file; gist_token exists for unattended setups.
package config
