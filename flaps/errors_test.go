package flaps_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/flapstest"
	"github.com/kbukum/flyio-api/httpclient"
	"github.com/kbukum/flyio-api/logger"
	"github.com/kbukum/flyio-api/machine"
)

func TestNotFound(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	c := newClient(t, srv)

	_, err := c.Get(context.Background(), "missing")
	var nf *flaps.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %T %v", err, err)
	}
	if nf.Err != "machine not found" || nf.StatusCode != http.StatusNotFound {
		t.Errorf("unexpected error %+v", nf)
	}
	if nf.RequestID != "req-1" {
		t.Errorf("expected fly-request-id to be captured, got %q", nf.RequestID)
	}
	if err.Error() != "not found: machine not found" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestAPIErrorMessage(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.Fail(http.MethodGet, "/148ed", http.StatusBadRequest, `{"error":"invalid_config","message":"image is required"}`, 1)
	c := newClient(t, srv)

	_, err := c.Get(context.Background(), "148ed")
	api, ok := flaps.AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	if api.Err != "invalid_config" || api.Message != "image is required" {
		t.Errorf("unexpected fields %+v", api)
	}
	if err.Error() != "invalid_config: image is required" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestNonJSONErrorBody(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.Fail(http.MethodGet, "/148ed", http.StatusBadGateway, "<html>bad gateway</html>", 0)
	c := newClient(t, srv)

	_, err := c.Get(context.Background(), "148ed")
	api, ok := flaps.AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %v", err)
	}
	want := "Server returned non-2xx status code 502, raw response: <html>bad gateway</html>"
	if api.Err != want {
		t.Errorf("Err = %q, want %q", api.Err, want)
	}
}

func TestUnexpectedStatus(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.Fail(http.MethodGet, "/148ed", http.StatusFound, "", 1)
	c := newClient(t, srv)

	_, err := c.Get(context.Background(), "148ed")
	var us *flaps.UnexpectedStatusError
	if !errors.As(err, &us) || us.StatusCode != http.StatusFound {
		t.Fatalf("expected UnexpectedStatusError, got %v", err)
	}
}

func TestDecodeError(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.Fail(http.MethodGet, "/148ed", http.StatusOK, "not json", 1)
	c := newClient(t, srv)

	_, err := c.Get(context.Background(), "148ed")
	var de *flaps.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T %v", err, err)
	}
}

func TestTransportError(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	c := newClient(t, srv)
	srv.Close()

	_, err := c.Get(context.Background(), "148ed")
	var te *flaps.TransportError
	if !errors.As(err, &te) || te.Op != "get" {
		t.Fatalf("expected TransportError, got %T %v", err, err)
	}
	if !httpclient.IsConnection(err) && !httpclient.IsTimeout(err) {
		t.Errorf("expected wrapped httpclient error, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	c := newClient(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Get(ctx, "148ed")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled in chain, got %v", err)
	}
}

func TestTransportRetriesIdempotentRequests(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStarted})
	srv.Fail(http.MethodGet, "/148ed", http.StatusServiceUnavailable, `{"error":"unavailable"}`, 2)
	c, err := flaps.New(srv.Settings(), flaps.WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("flaps.New: %v", err)
	}

	if _, err := c.Get(context.Background(), "148ed"); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if n := len(srv.Requests()); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}

func TestTransportDoesNotRetryPost(t *testing.T) {
	srv := flapstest.NewServer(t, "my-app")
	srv.AddMachine(machine.Machine{ID: "148ed", State: machine.StateStopped})
	srv.Fail(http.MethodPost, "/148ed/start", http.StatusServiceUnavailable, `{"error":"unavailable"}`, 1)
	c, err := flaps.New(srv.Settings(), flaps.WithLogger(logger.NewNop()))
	if err != nil {
		t.Fatalf("flaps.New: %v", err)
	}

	if _, err := c.Start(context.Background(), "148ed", ""); err == nil {
		t.Fatal("expected error")
	}
	if n := len(srv.Requests()); n != 1 {
		t.Errorf("expected a single request, got %d", n)
	}
}
