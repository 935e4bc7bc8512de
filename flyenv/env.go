// Package flyenv reads the environment the Fly platform sets up for machines.
package flyenv

import "os"

// Environment variables.
const (
	EnvAppName       = "FLY_APP_NAME"
	EnvFlapsBaseURL  = "FLY_FLAPS_BASE_URL"
	EnvAPIToken      = "FLY_API_TOKEN"
	InternalFlapsURL = "http://_api.internal:4280"
	PublicFlapsURL   = "https://api.machines.dev"
)

// CurrentAppName returns the app this process runs in. ok reports whether
// FLY_APP_NAME is set, even to an empty value.
func CurrentAppName() (name string, ok bool) {
	return os.LookupEnv(EnvAppName)
}

// RunningOnFly reports whether the process runs inside a Fly machine.
func RunningOnFly() bool {
	_, ok := CurrentAppName()
	return ok
}

// FlapsBaseURL returns the Machines API endpoint. An explicit
// FLY_FLAPS_BASE_URL wins; machines use the internal endpoint and everything
// else the public one.
func FlapsBaseURL() string {
	if u := os.Getenv(EnvFlapsBaseURL); u != "" {
		return u
	}
	if RunningOnFly() {
		return InternalFlapsURL
	}
	return PublicFlapsURL
}
