// Package config defines the govmesh-server configuration.
//
//   - types.go: ServerConfig and its sections, with koanf tags
//   - default.go: defaults and conversion to storage and service configs
//   - verify.go: validation, reporting every problem at once
//   - sanitize.go: secret masking for log output
//
// Configuration is loaded by internal/infra/confloader from a YAML file
// and GOVMESH_* environment variables.
package config
