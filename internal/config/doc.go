// Package config loads runtime configuration for the credvault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment variables (see parseEnv), after loading a .env file from
//     the working directory when one exists.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-vault string     path of the SQLite vault file
//	-backend string   storage backend: sqlite or postgres
//	-d string         database DSN (postgres URL, or SQLite DSN overriding -vault)
//	-suite string     cipher suite for new vaults: aes-256-gcm or chacha20-poly1305
//	-log string       log format: text, json or zap
//	-level string     log level: debug, info, warn or error
//
// # JSON schema
//
// The JSON loader uses timex.Duration for timeouts, so values can be either
// strings like "30s" or integer nanoseconds:
//
//	{
//	  "vault_path": "~/.credvault/vault.db",
//	  "backend": "sqlite",
//	  "cipher_suite": "chacha20-poly1305",
//	  "kdf": {"time": 2, "memory_kib": 65536, "threads": 4},
//	  "s3": {"bucket": "backups", "endpoint": "http://127.0.0.1:9000"},
//	  "backup_timeout": "30s"
//	}
//
// Environment variables use the CREDVAULT_ prefix, e.g. CREDVAULT_PATH,
// CREDVAULT_BACKEND, CREDVAULT_DATABASE_DSN and CREDVAULT_S3_BUCKET.
package config
