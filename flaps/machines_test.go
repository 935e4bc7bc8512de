package flaps_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/flapstest"
	"github.com/kbukum/flyio-api/machine"
	"github.com/kbukum/flyio-api/util"
	"github.com/kbukum/flyio-api/validation"
)

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("body is not JSON: %v (%s)", err, body)
	}
	return m
}

func TestLaunch(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	c := newClient(t, srv)

	m, err := c.Launch(context.Background(), flaps.LaunchMachineInput{
		Name:   "web-1",
		Region: "ord",
		Config: &machine.Config{Image: "registry.fly.io/my-app:deployment-1"},
		ID:     "ignored",
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if m.ID == "" || m.State != machine.StateStarted {
		t.Errorf("unexpected machine %+v", m)
	}
	if m.ImageRef.Repository != "my-app" || m.ImageRef.Tag != "deployment-1" {
		t.Errorf("unexpected image ref %+v", m.ImageRef)
	}

	req, _ := srv.LastRequest()
	if req.Method != http.MethodPost || req.Path != "" {
		t.Errorf("unexpected request %s %q", req.Method, req.Path)
	}
	body := decodeBody(t, req.Body)
	if _, ok := body["id"]; ok {
		t.Error("client-side id must not be sent")
	}
	if body["name"] != "web-1" || body["region"] != "ord" {
		t.Errorf("unexpected body %v", body)
	}
}

func TestLaunchSkipLaunchWithLease(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	c := newClient(t, srv)

	m, err := c.Launch(context.Background(), flaps.LaunchMachineInput{
		Config:     &machine.Config{Image: "nginx"},
		SkipLaunch: true,
		LeaseTTL:   util.Ptr(60),
	})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	if m.State != machine.StateCreated {
		t.Errorf("expected created, got %q", m.State)
	}
	if m.LeaseNonce == "" {
		t.Error("expected a lease nonce")
	}
}

func TestLaunchValidation(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	c := newClient(t, srv)

	_, err := c.Launch(context.Background(), flaps.LaunchMachineInput{Name: "a/b", LeaseTTL: util.Ptr(-1)})
	var ve *validation.Error
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ve.Field("name"); !ok {
		t.Errorf("expected name error, got %+v", ve.Fields)
	}
	if _, ok := ve.Field("lease_ttl"); !ok {
		t.Errorf("expected lease_ttl error, got %+v", ve.Fields)
	}
	if len(srv.Requests()) != 0 {
		t.Error("invalid input must not reach the server")
	}
}

func TestUpdate(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted, InstanceID: "old"})
	c := newClient(t, srv)

	if _, err := c.Update(context.Background(), flaps.LaunchMachineInput{}, ""); !errors.Is(err, flaps.ErrNoMachineID) {
		t.Errorf("expected ErrNoMachineID, got %v", err)
	}

	m, err := c.Update(context.Background(), flaps.LaunchMachineInput{
		ID:     "148ed",
		Config: &machine.Config{Image: "nginx:1.27", Env: map[string]string{"PORT": "8080"}},
	}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if m.InstanceID == "old" {
		t.Error("expected a new instance id")
	}
	if diff := cmp.Diff(map[string]string{"PORT": "8080"}, m.Config.Env); diff != "" {
		t.Errorf("env mismatch (-want +got):\n%s", diff)
	}
	req, _ := srv.LastRequest()
	if req.Path != "/148ed" {
		t.Errorf("unexpected path %q", req.Path)
	}
}

func TestStartWithLeaseNonce(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStopped})
	c := newClient(t, srv)
	ctx := context.Background()

	lease, err := c.AcquireLease(ctx, "148ed", nil)
	if err != nil {
		t.Fatalf("AcquireLease: %v", err)
	}

	_, err = c.Start(ctx, "148ed", "")
	if api, ok := flaps.AsAPIError(err); !ok || api.StatusCode != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 without nonce, got %v", err)
	}

	resp, err := c.Start(ctx, "148ed", lease.Data.Nonce)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	want := &flaps.MachineStartResponse{Status: "ok", PreviousState: "stopped"}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("start response mismatch (-want +got):\n%s", diff)
	}
	req, _ := srv.LastRequest()
	if got := req.Header.Get("fly-machine-lease-nonce"); got != lease.Data.Nonce {
		t.Errorf("expected nonce header, got %q", got)
	}
}

func TestStop(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted})
	c := newClient(t, srv)

	err := c.Stop(context.Background(), flaps.StopMachineInput{
		ID:      "148ed",
		Signal:  "SIGTERM",
		Timeout: machine.NewDuration(10 * time.Second),
	}, "")
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}

	req, _ := srv.LastRequest()
	if req.Path != "/148ed/stop" {
		t.Errorf("unexpected path %q", req.Path)
	}
	want := map[string]any{"id": "148ed", "signal": "SIGTERM", "timeout": "10s"}
	if diff := cmp.Diff(want, decodeBody(t, req.Body)); diff != "" {
		t.Errorf("stop body mismatch (-want +got):\n%s", diff)
	}
	if m, _ := srv.Machine("148ed"); m.State != machine.StateStopped {
		t.Errorf("expected stopped, got %q", m.State)
	}
}

func TestRestartQuery(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted})
	c := newClient(t, srv)
	ctx := context.Background()

	tests := []struct {
		name string
		in   flaps.RestartMachineInput
		want map[string][]string
	}{
		{
			name: "minimal",
			in:   flaps.RestartMachineInput{ID: "148ed"},
			want: map[string][]string{"force_stop": {"false"}},
		},
		{
			name: "full",
			in:   flaps.RestartMachineInput{ID: "148ed", Signal: "SIGINT", Timeout: 5 * time.Second, ForceStop: true},
			want: map[string][]string{
				"force_stop": {"true"},
				"timeout":    {"5000000000"},
				"signal":     {"SIGINT"},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := c.Restart(ctx, tc.in, ""); err != nil {
				t.Fatalf("Restart: %v", err)
			}
			req, _ := srv.LastRequest()
			if diff := cmp.Diff(tc.want, map[string][]string(req.Query)); diff != "" {
				t.Errorf("query mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDestroy(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted})
	c := newClient(t, srv)
	ctx := context.Background()

	err := c.Destroy(ctx, flaps.RemoveMachineInput{ID: "148ed"}, "")
	if api, ok := flaps.AsAPIError(err); !ok || api.StatusCode != http.StatusPreconditionFailed {
		t.Fatalf("expected 412 for running machine, got %v", err)
	}
	req, _ := srv.LastRequest()
	if req.Method != http.MethodDelete || req.Query.Get("kill") != "false" {
		t.Errorf("unexpected request %s %v", req.Method, req.Query)
	}

	if err := c.Destroy(ctx, flaps.RemoveMachineInput{ID: "148ed", Kill: true}, ""); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, ok := srv.Machine("148ed"); ok {
		t.Error("machine should be gone")
	}
}

func TestKillAndSignal(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted})
	c := newClient(t, srv)
	ctx := context.Background()

	if err := c.Kill(ctx, "148ed"); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	req, _ := srv.LastRequest()
	if req.Path != "/148ed/signal" {
		t.Errorf("unexpected path %q", req.Path)
	}
	if diff := cmp.Diff(map[string]any{"signal": float64(9)}, decodeBody(t, req.Body)); diff != "" {
		t.Errorf("signal body mismatch (-want +got):\n%s", diff)
	}

	if err := c.Signal(ctx, "148ed", 0); !validation.IsValidationError(err) {
		t.Errorf("expected validation error for signal 0, got %v", err)
	}
}

func TestExec(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted})
	c := newClient(t, srv)
	ctx := context.Background()

	resp, err := c.Exec(ctx, "148ed", flaps.MachineExecRequest{Cmd: "echo hello", Timeout: 5})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	want := &flaps.MachineExecResponse{Stdout: "hello\n"}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Errorf("exec response mismatch (-want +got):\n%s", diff)
	}

	if _, err := c.Exec(ctx, "148ed", flaps.MachineExecRequest{}); !validation.IsValidationError(err) {
		t.Errorf("expected validation error for empty cmd, got %v", err)
	}
}

func TestGetProcesses(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted})
	c := newClient(t, srv)

	ps, err := c.GetProcesses(context.Background(), "148ed")
	if err != nil {
		t.Fatalf("GetProcesses: %v", err)
	}
	if len(ps) != 1 || ps[0].PID != 1 {
		t.Errorf("unexpected processes %+v", ps)
	}
}

func TestMissingMachineID(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	c := newClient(t, srv)
	ctx := context.Background()

	calls := map[string]func() error{
		"get":     func() error { _, err := c.Get(ctx, ""); return err },
		"start":   func() error { _, err := c.Start(ctx, "", ""); return err },
		"stop":    func() error { return c.Stop(ctx, flaps.StopMachineInput{}, "") },
		"restart": func() error { return c.Restart(ctx, flaps.RestartMachineInput{}, "") },
		"destroy": func() error { return c.Destroy(ctx, flaps.RemoveMachineInput{}, "") },
		"kill":    func() error { return c.Kill(ctx, "") },
		"lease":   func() error { _, err := c.FindLease(ctx, ""); return err },
		"wait":    func() error { return c.Wait(ctx, &machine.Machine{}, "", time.Second) },
	}
	for name, fn := range calls {
		if err := fn(); !errors.Is(err, flaps.ErrNoMachineID) {
			t.Errorf("%s: expected ErrNoMachineID, got %v", name, err)
		}
	}
	if len(srv.Requests()) != 0 {
		t.Error("no request should be sent without a machine id")
	}
}

func TestMachineIDIsEscaped(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	c := newClient(t, srv)

	_, err := c.Get(context.Background(), "a b")
	if !flaps.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	req, _ := srv.LastRequest()
	if req.Path != "/a b" {
		t.Errorf("unexpected decoded path %q", req.Path)
	}
}
