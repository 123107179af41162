// Package config provides the mockapi server configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then MOCKAPI_* environment variables. Nested keys map to environment
// names by replacing dots with underscores:
//
//	storage.backend  -> MOCKAPI_STORAGE_BACKEND
//	cache.ttl        -> MOCKAPI_CACHE_TTL
//
// Example file:
//
//	server:
//	  addr: ":8080"
//	storage:
//	  backend: file
//	  dir: /var/lib/mockapi
//	cache:
//	  enabled: true
//	  backend: memory
//	  ttl: 1s
package config
