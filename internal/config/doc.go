// Package config loads the emarket configuration.
//
// # Resolution order
//
// Each field is taken from the first source that sets it:
//
//  1. the process environment (EMARKET_* variables)
//  2. env files passed to Load, later files winning (.env by default in cmd/emarket)
//  3. the TOML file (~/.config/emarket/config.toml unless a path is given)
//  4. built-in defaults
//
// A missing config file or env file is not an error; a malformed one is.
//
// # File format
//
//	api_url = "http://localhost:3000"
//	timeout = "8s"
//	rate_limit = 0          # requests per second, 0 disables
//	log_level = "info"
//	log_file = "~/.local/state/emarket/emarket.log"
//	poll_interval = "30s"
//
//	[store]
//	backend = "file"        # memory | file | redis | sqlite
//	path = ""               # file and sqlite backends
//	redis_addr = "localhost:6379"
//	redis_db = 0
//	namespace = "emarket"
//
// Paths starting with ~ are expanded against the user's home directory.
package config
