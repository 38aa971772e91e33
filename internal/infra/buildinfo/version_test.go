package buildinfo

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version == "" {
		t.Error("Version should not be empty")
	}
	if info.Commit == "" {
		t.Error("Commit should not be empty")
	}
	if info.BuildTime == "" {
		t.Error("BuildTime should not be empty")
	}
	if info.GoVersion == "" {
		t.Error("GoVersion should not be empty")
	}
	if Get() != info {
		t.Error("Get() is not stable")
	}
}

func TestString(t *testing.T) {
	info := Get()
	expected := info.Version + " (" + info.Commit + ") built at " + info.BuildTime
	if s := String(); s != expected {
		t.Errorf("String() = %q, want %q", s, expected)
	}
}

func TestFill(t *testing.T) {
	info := Info{Version: "dev", Commit: "unknown", BuildTime: "unknown", GoVersion: "unknown"}
	fill(&info, &debug.BuildInfo{
		GoVersion: "go1.24.4",
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})

	if info.GoVersion != "go1.24.4" {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.Commit != "0123456789ab" {
		t.Errorf("Commit = %q, want shortened revision", info.Commit)
	}
	if info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("BuildTime = %q", info.BuildTime)
	}
}

func TestFill_KeepsLdflags(t *testing.T) {
	info := Info{Version: "v1.2.0", Commit: "abc123", BuildTime: "yesterday", GoVersion: "go1.23"}
	fill(&info, &debug.BuildInfo{
		GoVersion: "go1.24.4",
		Settings:  []debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}},
	})
	if info.Commit != "abc123" || info.GoVersion != "go1.23" || info.BuildTime != "yesterday" {
		t.Errorf("ldflags values overwritten: %+v", info)
	}
}

func TestUserAgent(t *testing.T) {
	ua := UserAgent("govmesh-cli")
	if !strings.HasPrefix(ua, "govmesh-cli/") {
		t.Errorf("UserAgent() = %q", ua)
	}
}
