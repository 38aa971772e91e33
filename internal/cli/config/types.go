package config

import "time"

// CLIConfig is the govmesh-cli profile.
type CLIConfig struct {
	// Server is the base URL or host:port of govmesh-server.
	Server string `koanf:"server" yaml:"server"`

	// Principal is sent as X-Principal on mutating calls.
	Principal string `koanf:"principal" yaml:"principal,omitempty"`

	// AdminKey is sent as X-Admin-Key on admin calls.
	AdminKey string `koanf:"admin_key" yaml:"admin_key,omitempty"`

	// Output is the default output format: table, json or yaml.
	Output string `koanf:"output" yaml:"output"`

	// CAFile verifies a server certificate signed by a private CA.
	CAFile string `koanf:"ca_file" yaml:"ca_file,omitempty"`

	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
}

// Default returns the built-in profile.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://127.0.0.1:5380",
		Output:  "table",
		Timeout: 30 * time.Second,
	}
}
