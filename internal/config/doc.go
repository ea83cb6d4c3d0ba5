// Package config handles configuration loading for the legisbot client.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. A missing file is not an error for the CLI: LoadOrDefault falls
// back to Default.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from LEGISBOT_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/legisbot/config.yaml
//  3. ~/.config/legisbot/config.yaml
//
// A .env file in the same directory is loaded before expansion, so secrets
// such as the redis password can live outside the config file.
//
// # Environment Variable Expansion
//
//	credentials:
//	  redis_password: "${LEGISBOT_REDIS_PASSWORD}"
//
// LEGISBOT_API_BASE_URL always overrides backend.base_url.
//
// # Configuration Sections
//
//	backend:
//	  base_url: "http://localhost:8000/api"
//	  timeout: "60s"
//
//	credentials:
//	  driver: "file"        # file, sqlite, redis, memory
//	  path: "~/.config/legisbot/token"
//
//	logging:
//	  level: "info"         # debug, info, warn, error
//	  format: "text"        # text, json
//	  file: "/tmp/legisbot.log"
//
//	stats:
//	  cache_ttl: "1m"
package config
