// Package buildinfo holds version information stamped in at build time:
//
//	go build -ldflags "-X github.com/ddurio/ProMage2-sub001/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/ddurio/ProMage2-sub001/pkg/buildinfo.Commit=$(git rev-parse HEAD)"
//
// The version also scopes cache keys, so artifacts generated by one build
// are never served to another.
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template returns the --version template for cobra.
func Template() string {
	return fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
}

// CacheScope returns the prefix applied to cache keys. Development builds
// include the commit, since their step implementations change without a
// version bump.
func CacheScope() string {
	if Version == "dev" {
		return Version + "-" + Commit + ":"
	}
	return Version + ":"
}
