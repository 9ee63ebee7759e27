// Package version tracks the server version and the schema version derived
// from it.
package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the semver of the current release.
var Version = "0.3.1"

// DevVersion is the version used in development builds.
var DevVersion = "0.3.1"

func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// GetMinorVersion returns the "major.minor" prefix of a version string.
func GetMinorVersion(version string) string {
	versionList := strings.Split(version, ".")
	if len(versionList) < 3 {
		return ""
	}
	return versionList[0] + "." + versionList[1]
}

// GetSchemaVersion returns the schema version for the given mode. The schema
// version is the minor version with the patch part fixed to zero, so e.g.
// both 0.3.0 and 0.3.1 map to schema 0.3.0.
func GetSchemaVersion(mode string) string {
	minorVersion := GetMinorVersion(GetCurrentVersion(mode))
	return minorVersion + ".0"
}

// IsVersionGreaterOrEqualThan returns true if version is greater than or
// equal to target.
func IsVersionGreaterOrEqualThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > -1
}

// IsVersionGreaterThan returns true if version is greater than target.
func IsVersionGreaterThan(version, target string) bool {
	return semver.Compare(fmt.Sprintf("v%s", version), fmt.Sprintf("v%s", target)) > 0
}
