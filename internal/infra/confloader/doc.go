// Package confloader fills configuration structs with koanf.
//
// Sources are applied over a struct the caller pre-fills with defaults,
// later sources winning:
//
//  1. YAML configuration file
//  2. Environment variables (GOVMESH_* for the server, GOVMESH_CLI_* for
//     the command-line client)
//
// Watcher reports writes to the configuration file so the server can
// apply the settings it reloads at runtime (the log level).
package confloader
