package flaps

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kbukum/flyio-api/machine"
	"github.com/kbukum/flyio-api/validation"
)

// Launch creates a machine and starts it unless in.SkipLaunch is set.
func (c *Client) Launch(ctx context.Context, in LaunchMachineInput) (*machine.Machine, error) {
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	return send[*machine.Machine](ctx, c, call{
		op:     "launch",
		method: http.MethodPost,
		body:   in,
	})
}

// Update replaces the configuration of machine in.ID.
func (c *Client) Update(ctx context.Context, in LaunchMachineInput, nonce string) (*machine.Machine, error) {
	if in.ID == "" {
		return nil, ErrNoMachineID
	}
	if err := validation.Validate(in); err != nil {
		return nil, err
	}
	return send[*machine.Machine](ctx, c, call{
		op:        "update",
		method:    http.MethodPost,
		path:      machinePath(in.ID),
		body:      in,
		nonce:     nonce,
		machineID: in.ID,
	})
}

// Start starts a stopped machine.
func (c *Client) Start(ctx context.Context, id, nonce string) (*MachineStartResponse, error) {
	if id == "" {
		return nil, ErrNoMachineID
	}
	return send[*MachineStartResponse](ctx, c, call{
		op:        "start",
		method:    http.MethodPost,
		path:      machinePath(id, "start"),
		nonce:     nonce,
		machineID: id,
	})
}

// Stop stops a machine.
func (c *Client) Stop(ctx context.Context, in StopMachineInput, nonce string) error {
	if in.ID == "" {
		return ErrNoMachineID
	}
	_, err := send[discard](ctx, c, call{
		op:        "stop",
		method:    http.MethodPost,
		path:      machinePath(in.ID, "stop"),
		body:      in,
		nonce:     nonce,
		machineID: in.ID,
	})
	return err
}

// Restart restarts a machine.
func (c *Client) Restart(ctx context.Context, in RestartMachineInput, nonce string) error {
	if in.ID == "" {
		return ErrNoMachineID
	}
	if err := validation.Validate(in); err != nil {
		return err
	}
	query := map[string]string{"force_stop": strconv.FormatBool(in.ForceStop)}
	if in.Timeout > 0 {
		query["timeout"] = strconv.FormatInt(in.Timeout.Nanoseconds(), 10)
	}
	if in.Signal != "" {
		query["signal"] = in.Signal
	}
	_, err := send[discard](ctx, c, call{
		op:        "restart",
		method:    http.MethodPost,
		path:      machinePath(in.ID, "restart"),
		query:     query,
		nonce:     nonce,
		machineID: in.ID,
	})
	return err
}

// Get fetches one machine.
func (c *Client) Get(ctx context.Context, id string) (*machine.Machine, error) {
	if id == "" {
		return nil, ErrNoMachineID
	}
	return send[*machine.Machine](ctx, c, call{
		op:        "get",
		method:    http.MethodGet,
		path:      machinePath(id),
		machineID: id,
	})
}

// Destroy deletes a machine. A running machine is only destroyed when
// in.Kill is set.
func (c *Client) Destroy(ctx context.Context, in RemoveMachineInput, nonce string) error {
	if in.ID == "" {
		return ErrNoMachineID
	}
	_, err := send[discard](ctx, c, call{
		op:        "destroy",
		method:    http.MethodDelete,
		path:      machinePath(in.ID, "destroy"),
		query:     map[string]string{"kill": strconv.FormatBool(in.Kill)},
		nonce:     nonce,
		machineID: in.ID,
	})
	return err
}

// Kill sends SIGKILL to a machine.
func (c *Client) Kill(ctx context.Context, id string) error {
	return c.Signal(ctx, id, SIGKILL)
}

// Signal sends a signal to the main process of a machine.
func (c *Client) Signal(ctx context.Context, id string, sig int) error {
	if id == "" {
		return ErrNoMachineID
	}
	in := Signal{Signal: sig}
	if err := validation.Validate(in); err != nil {
		return err
	}
	_, err := send[discard](ctx, c, call{
		op:        "signal",
		method:    http.MethodPost,
		path:      machinePath(id, "signal"),
		body:      in,
		machineID: id,
	})
	return err
}

// Exec runs a command in a machine and returns its output.
func (c *Client) Exec(ctx context.Context, id string, req MachineExecRequest) (*MachineExecResponse, error) {
	if id == "" {
		return nil, ErrNoMachineID
	}
	if err := validation.Validate(req); err != nil {
		return nil, err
	}
	return send[*MachineExecResponse](ctx, c, call{
		op:        "exec",
		method:    http.MethodPost,
		path:      machinePath(id, "exec"),
		body:      req,
		machineID: id,
	})
}

// GetProcesses lists the processes running in a machine.
func (c *Client) GetProcesses(ctx context.Context, id string) ([]machine.ProcessStat, error) {
	if id == "" {
		return nil, ErrNoMachineID
	}
	return send[[]machine.ProcessStat](ctx, c, call{
		op:        "ps",
		method:    http.MethodGet,
		path:      machinePath(id, "ps"),
		machineID: id,
	})
}
