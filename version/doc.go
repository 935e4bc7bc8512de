// Package version exposes build metadata and the client User-Agent.
//
// Values are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/flyio-api/version.Version=0.3.0"
//
// Without ldflags the module version from the binary's build info is used.
package version
