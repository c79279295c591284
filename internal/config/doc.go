// Package config loads runtime configuration for millkeeper.
//
// Sources & precedence
//
//  1. Built-in defaults (env-default struct tags).
//  2. Optional JSON or YAML file: --config, else $MILLKEEPER_CONFIG, else
//     the per-user App_Frantoio/config.json when present.
//  3. MILLKEEPER_* environment variables.
//  4. Command-line overrides (see Overrides).
//
// # JSON schema
//
//	{
//	  "api_key": "...",
//	  "database_url": "https://<project>.firebaseio.com",
//	  "collection": "molitura",
//	  "archive_db": "frantoio_archive.db",
//	  "hybrid_days": 7,
//	  "retention_days": 7,
//	  "euro_per_kg": 0.30,
//	  "poll_ms": 3000,
//	  "mirror_interval_minutes": 5,
//	  "timezone": "Europe/Rome",
//	  "auth": {"email": "operatore@frantoio.it"},
//	  "http": {"addr": ":8080"},
//	  "log": {"format": "text", "level": "info"}
//	}
//
// A zero value in the file counts as unset and takes the default; use the
// --hybrid-days flag to force a hot window of 0.
package config
