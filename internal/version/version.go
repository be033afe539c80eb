// Package version holds devexy's build version, settable via -ldflags at
// build time (go build -ldflags "-X github.com/sycdan/devexy/internal/version.Version=1.2.3").
package version

// Version defaults to "dev" for local builds.
var Version = "dev"
