package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestColoredKeepsSuffix(t *testing.T) {
	withoutColor(t)
	if got := Colored(); got != Version {
		t.Fatalf("Colored() = %q, want %q", got, Version)
	}
}

func TestDescribeIncludesOverrides(t *testing.T) {
	withoutColor(t)
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() { Version, GitCommit, BuildDate = origVersion, origCommit, origDate })

	Version = "1.2.3"
	GitCommit = "abc123"
	BuildDate = "2026-01-15T10:30:00Z"
	got := Describe(1)
	for _, want := range []string{"blaise 1.2.3", "unit schema 1", "commit abc123", "built 2026-01-15"} {
		if !strings.Contains(got, want) {
			t.Fatalf("Describe = %q, missing %q", got, want)
		}
	}
}

func TestColoredMalformedVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })
	Version = "nightly"
	if Colored() != "nightly" {
		t.Fatalf("Colored() = %q", Colored())
	}
}
