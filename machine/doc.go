// Package machine defines the Fly Machines data model: machines, their
// configuration, guest sizing presets, image references, lifecycle events
// and states.
//
// Types marshal to the wire format used by the Machines API. Durations inside
// configs use Go duration strings ("10s", "1m30s"); timestamps are RFC 3339.
package machine
