// Package buildinfo exposes the version of the GovMesh binaries.
//
// Values are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/govmesh-go/internal/infra/buildinfo.Version=v1.0.0"
//
// Commit, BuildTime and GoVersion fall back to the VCS stamp embedded by
// the Go toolchain when not set. The server reports the result on /health
// and the CLI sends it as User-Agent.
package buildinfo
