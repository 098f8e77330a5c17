// Package version exposes the build version of the pokedex binary.
package version

import (
	"github.com/Masterminds/semver/v3"
)

// devVersion is reported when the binary was built without a usable version.
const devVersion = "0.0.0-dev"

// version is set at build time:
//
//	go build -ldflags "-X github.com/rshade/pokedex/pkg/version.version=v1.2.3"
//
//nolint:gochecknoglobals // Overridden via -ldflags at build time.
var version = ""

// GetVersion returns the normalized semantic version of the binary.
// A leading "v" is accepted; anything that does not parse as semver is
// reported as the development version.
func GetVersion() string {
	return normalize(version)
}

func normalize(raw string) string {
	if raw == "" {
		return devVersion
	}
	v, err := semver.NewVersion(raw)
	if err != nil {
		return devVersion
	}
	return v.String()
}
