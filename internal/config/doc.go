// Package config provides centralized configuration for the accrual
// pipeline. It loads settings from struct-tag defaults, EIASA_-prefixed
// environment variables, and an optional YAML overlay file, and resolves
// the bronze/silver/gold directory tree into absolute paths.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. YAML configuration file passed on the command line (highest)
//	2. Environment variables
//	3. Default values (lowest)
//
// # Environment Variables
//
// All environment variables follow the pattern EIASA_* for namespacing:
//
//	EIASA_SERVER_PORT=8080
//	EIASA_EIA_API_KEY=...
//	EIASA_ACCRUAL_WACOG_PER_UNIT=3.25
//	EIASA_LOGGING_LEVEL=info
package config
