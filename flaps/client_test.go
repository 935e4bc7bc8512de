package flaps_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/flapstest"
	"github.com/kbukum/flyio-api/flyenv"
	"github.com/kbukum/flyio-api/logger"
	"github.com/kbukum/flyio-api/machine"
)

func newClient(t *testing.T, srv *flapstest.Server, opts ...flaps.Option) *flaps.Client {
	t.Helper()
	settings := srv.Settings()
	settings.Retry.Disabled = true
	c, err := flaps.New(settings, append([]flaps.Option{flaps.WithLogger(logger.NewNop())}, opts...)...)
	if err != nil {
		t.Fatalf("flaps.New: %v", err)
	}
	return c
}

func TestNewAuthHeader(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"FlyV1 fm2_abc", "FlyV1 fm2_abc"},
		{"abc", "Bearer abc"},
		{"", ""},
	}
	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			srv := flapstest.NewServer(t, "my-app")
			srv.RequireToken(tc.token)
			c := newClient(t, srv)

			if _, err := c.List(context.Background(), ""); err != nil {
				t.Fatalf("List: %v", err)
			}
			req, _ := srv.LastRequest()
			if got := req.Header.Get("Authorization"); got != tc.want {
				t.Errorf("Authorization = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewAppName(t *testing.T) {
	t.Setenv(flyenv.EnvAppName, "")

	_, err := flaps.New(flaps.Settings{BaseURL: "https://api.machines.dev"})
	if !errors.Is(err, flaps.ErrMissingAppName) {
		t.Errorf("expected ErrMissingAppName, got %v", err)
	}

	for _, name := range []string{"a/b", "a:b", `a\b`} {
		_, err := flaps.New(flaps.Settings{BaseURL: "https://api.machines.dev", AppName: name})
		var invalid *flaps.InvalidAppNameError
		if !errors.As(err, &invalid) || invalid.Name != name {
			t.Errorf("%q: expected InvalidAppNameError, got %v", name, err)
		}
	}

	t.Setenv(flyenv.EnvAppName, "from-env")
	c, err := flaps.New(flaps.Settings{BaseURL: "https://api.machines.dev"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.AppName() != "from-env" {
		t.Errorf("expected app name from env, got %q", c.AppName())
	}
}

func TestNewInvalidBaseURL(t *testing.T) {
	for _, base := range []string{"api.machines.dev", "://nope", "/v1"} {
		_, err := flaps.New(flaps.Settings{BaseURL: base, AppName: "my-app"})
		var invalid *flaps.InvalidBaseURLError
		if !errors.As(err, &invalid) {
			t.Errorf("%q: expected InvalidBaseURLError, got %v", base, err)
		}
	}
}

func TestNewAppURL(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"https://api.machines.dev", "https://api.machines.dev/v1/apps/my-app/machines"},
		{"https://api.machines.dev/", "https://api.machines.dev/v1/apps/my-app/machines"},
		{"http://_api.internal:4280", "http://_api.internal:4280/v1/apps/my-app/machines"},
	}
	for _, tc := range tests {
		c, err := flaps.New(flaps.Settings{BaseURL: tc.base, AppName: "my-app"})
		if err != nil {
			t.Fatalf("%s: %v", tc.base, err)
		}
		if c.AppURL() != tc.want {
			t.Errorf("AppURL() = %q, want %q", c.AppURL(), tc.want)
		}
	}
}

func TestNewBaseURLFromEnv(t *testing.T) {
	t.Setenv(flyenv.EnvFlapsBaseURL, "http://flaps.test")
	c, err := flaps.New(flaps.Settings{AppName: "my-app"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(c.AppURL(), "http://flaps.test/") {
		t.Errorf("expected env base url, got %q", c.AppURL())
	}
}

func TestRequestHeaders(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted})
	c := newClient(t, srv)

	if _, err := c.Get(context.Background(), "148ed"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	req, _ := srv.LastRequest()
	if ua := req.Header.Get("User-Agent"); !strings.HasPrefix(ua, "flyio-api-go/") {
		t.Errorf("unexpected User-Agent %q", ua)
	}
	if req.Header.Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id header")
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected Content-Type %q", ct)
	}
	if len(req.Body) != 0 {
		t.Errorf("expected no body on GET, got %q", req.Body)
	}
}

func TestCustomUserAgent(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	settings := srv.Settings()
	settings.UserAgent = "deployer/1.0"
	c, err := flaps.New(settings, flaps.WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("flaps.New: %v", err)
	}
	if _, err := c.List(context.Background(), ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	req, _ := srv.LastRequest()
	if ua := req.Header.Get("User-Agent"); ua != "deployer/1.0" {
		t.Errorf("unexpected User-Agent %q", ua)
	}
}

func TestNewFromSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "api.sock")
	ln, err := net.Listen("unix", sock)
	if err != nil {
		t.Skipf("unix sockets unavailable: %v", err)
	}

	var got *http.Request
	ts := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"148ed","state":"started"}`))
	}))
	_ = ts.Listener.Close()
	ts.Listener = ln
	ts.Start()
	t.Cleanup(ts.Close)

	c, err := flaps.NewFromSocket("my-app", flaps.WithSocketPath(sock), flaps.WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("NewFromSocket: %v", err)
	}
	m, err := c.Get(context.Background(), "148ed")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if m.State != machine.StateStarted {
		t.Errorf("unexpected state %q", m.State)
	}
	if got.URL.Path != "/v1/apps/my-app/machines/148ed" {
		t.Errorf("unexpected path %q", got.URL.Path)
	}
	if got.Host != "localhost" {
		t.Errorf("unexpected host %q", got.Host)
	}
	if got.Header.Get("Authorization") != "" {
		t.Errorf("socket requests carry no auth, got %q", got.Header.Get("Authorization"))
	}
	if ua := got.Header.Get("User-Agent"); !strings.HasPrefix(ua, "flyio-api-go-unix/") {
		t.Errorf("unexpected User-Agent %q", ua)
	}
}

func TestNewFromSocketAppName(t *testing.T) {
	t.Setenv(flyenv.EnvAppName, "")
	if _, err := flaps.NewFromSocket(""); !errors.Is(err, flaps.ErrMissingAppName) {
		t.Errorf("expected ErrMissingAppName, got %v", err)
	}
}
