package flaps

import (
	"time"

	"github.com/kbukum/flyio-api/machine"
)

// LaunchMachineInput creates or updates a machine.
type LaunchMachineInput struct {
	Config     *machine.Config `json:"config,omitempty"`
	Region     string          `json:"region,omitempty" validate:"omitempty,alpha,lowercase,len=3"`
	Name       string          `json:"name,omitempty" validate:"omitempty,flyname"`
	SkipLaunch bool            `json:"skip_launch,omitempty"`
	LeaseTTL   *int            `json:"lease_ttl,omitempty" validate:"omitempty,gte=0"`

	// ID selects the machine to update. It is not sent in the body.
	ID string `json:"-"`
}

// MachineStartResponse is returned by Start.
type MachineStartResponse struct {
	Message       string `json:"message,omitempty"`
	Status        string `json:"status,omitempty"`
	PreviousState string `json:"previous_state,omitempty"`
}

// StopMachineInput stops a machine, optionally with a custom signal and grace
// period.
type StopMachineInput struct {
	ID      string            `json:"id"`
	Signal  string            `json:"signal,omitempty"`
	Timeout *machine.Duration `json:"timeout,omitempty"`
}

// RestartMachineInput restarts a machine. Its fields travel as query
// parameters.
type RestartMachineInput struct {
	ID        string
	Signal    string
	Timeout   time.Duration `validate:"gte=0"`
	ForceStop bool
}

// RemoveMachineInput destroys a machine. Kill destroys a running machine.
type RemoveMachineInput struct {
	ID   string
	Kill bool
}

// Signal is a POSIX signal number sent to a machine.
type Signal struct {
	Signal int `json:"signal" validate:"gte=1,lte=64"`
}

// SIGKILL is the signal Kill sends.
const SIGKILL = 9

// MachineLease is the lease state reported by the API.
type MachineLease struct {
	Status  string            `json:"status"`
	Data    *MachineLeaseData `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Code    string            `json:"code,omitempty"`
}

// MachineLeaseData describes a held lease.
type MachineLeaseData struct {
	Nonce     string `json:"nonce"`
	ExpiresAt int64  `json:"expires_at"`
	Owner     string `json:"owner"`
}

// Expires returns the lease expiry time.
func (d *MachineLeaseData) Expires() time.Time {
	return time.Unix(d.ExpiresAt, 0)
}

// MachineExecRequest runs a command inside a machine.
type MachineExecRequest struct {
	Cmd     string `json:"cmd" validate:"required"`
	Timeout int    `json:"timeout,omitempty" validate:"gte=0"`
}

// MachineExecResponse is the result of Exec.
type MachineExecResponse struct {
	ExitCode int32  `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
}

// FlyAppsMachines splits an app's machines into regular machines and the
// release command machine, if one exists.
type FlyAppsMachines struct {
	Machines          []*machine.Machine
	ReleaseCmdMachine *machine.Machine
}
