package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is set at build time with:
// -ldflags "-X github.com/jenkinsci/radiatorview/internal/version.Version=vX.Y.Z"
var Version = "dev"

// Current returns the canonical semantic version, or the raw value when it
// is not a semantic version.
func Current() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	if !strings.HasPrefix(v, "v") && semver.IsValid("v"+v) {
		v = "v" + v
	}
	if c := semver.Canonical(v); c != "" {
		return c
	}
	return v
}

func IsRelease() bool {
	v := Current()
	return semver.IsValid(v) && semver.Prerelease(v) == ""
}
