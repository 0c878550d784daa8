package core

import "strings"

// Build information, set at build time via ldflags:
//
//	go build -ldflags "-X sdprompt/core.Version=$(git describe --tags --always)" .
//
// BuildLdflags renders the same flags. Unset values keep their defaults.
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const versionPackage = "sdprompt/core"

// GetVersionInfo returns a formatted version string, e.g.
// "v1.0.0 (built 2024-01-15T10:30:00Z, commit abc1234)".
func GetVersionInfo() string {
	return Version + " (built " + BuildTime + ", commit " + GitCommit + ")"
}

// BuildLdflags returns the -X flags that stamp the given values into this
// package. Empty values are left out.
func BuildLdflags(version, buildTime, gitCommit string) string {
	var flags []string
	for _, kv := range [][2]string{
		{"Version", version},
		{"BuildTime", buildTime},
		{"GitCommit", gitCommit},
	} {
		if kv[1] != "" {
			flags = append(flags, "-X "+versionPackage+"."+kv[0]+"="+kv[1])
		}
	}
	return strings.Join(flags, " ")
}
