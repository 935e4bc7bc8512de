package machine

import (
	"errors"
	"time"
)

// ErrNoExitCode is returned when a MachineRequest carries no exit event.
var ErrNoExitCode = errors.New("no exit code in this machine request")

// MachineEvent is a lifecycle event recorded against a machine.
type MachineEvent struct {
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Request   *MachineRequest `json:"request,omitempty"`
	Source    string          `json:"source"`
	Timestamp int64           `json:"timestamp"`
}

// Time converts the millisecond timestamp.
func (e *MachineEvent) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// MachineRequest is the request that produced an event.
type MachineRequest struct {
	ExitEvent    *MachineExitEvent `json:"exit_event,omitempty"`
	MonitorEvent *MonitorEvent     `json:"monitor_event,omitempty"`
	RestartCount int               `json:"restart_count"`
}

// MonitorEvent wraps an exit event observed by the machine monitor.
type MonitorEvent struct {
	ExitEvent *MachineExitEvent `json:"exit_event,omitempty"`
}

// MachineExitEvent describes how a machine's main process exited.
type MachineExitEvent struct {
	ExitCode      int        `json:"exit_code"`
	GuestExitCode int        `json:"guest_exit_code"`
	GuestSignal   int        `json:"guest_signal"`
	OOMKilled     bool       `json:"oom_killed"`
	RequestedStop bool       `json:"requested_stop"`
	Restarting    bool       `json:"restarting"`
	Signal        int        `json:"signal"`
	ExitedAt      *time.Time `json:"exited_at,omitempty"`
}

// ExitCode returns the exit code of the request, preferring the monitor's
// exit event.
func (r *MachineRequest) ExitCode() (int, error) {
	if r.MonitorEvent != nil && r.MonitorEvent.ExitEvent != nil {
		return r.MonitorEvent.ExitEvent.ExitCode, nil
	}
	if r.ExitEvent != nil {
		return r.ExitEvent.ExitCode, nil
	}
	return 0, ErrNoExitCode
}
