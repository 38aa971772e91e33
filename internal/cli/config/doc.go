// Package config holds the govmesh-cli profile.
//
// The profile lives in ~/.govmesh/cli.yaml and supplies defaults for the
// global flags. Environment variables with the GOVMESH_CLI_ prefix override
// the file, and explicit flags override both.
package config
