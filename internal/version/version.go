// Package version carries build information set through -ldflags.
package version

import "fmt"

var (
	Version = "dev"
	Commit  = ""
)

// ClientVersion is the version reported to the remote service. It must be
// a plain semantic version, so development builds report 0.0.0.
func ClientVersion() string {
	if Version == "" || Version == "dev" {
		return "0.0.0"
	}
	if Version[0] == 'v' {
		return Version[1:]
	}
	return Version
}

func String() string {
	if Commit == "" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, Commit)
}
