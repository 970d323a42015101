package version

import (
	"testing"

	"github.com/fatih/color"
)

func TestCurrent(t *testing.T) {
	origVersion, origCommit := Version, GitCommit
	defer func() { Version, GitCommit = origVersion, origCommit }()

	Version = "1.2.3"
	GitCommit = "abc123def456"
	info := Current()
	if info.Version != "1.2.3" || info.GitCommit != "abc123def456" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.GoVersion == "" || info.Platform == "" {
		t.Fatalf("runtime fields must be set: %+v", info)
	}
}

func TestPretty(t *testing.T) {
	orig := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = orig }()

	tests := map[string]string{
		"0.3.0":                "0.3.0",
		"1.2.3-rc.1":           "1.2.3-rc.1",
		"1.2.3-rc.1+build.123": "1.2.3-rc.1+build.123",
		"dev":                  "dev",
	}
	for in, want := range tests {
		if got := Pretty(in); got != want {
			t.Errorf("Pretty(%q) = %q, want %q", in, got, want)
		}
	}
}
