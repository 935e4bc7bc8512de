package flaps

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kbukum/flyio-api/validation"
)

// FindLease returns the lease held on a machine, or nil when there is none.
func (c *Client) FindLease(ctx context.Context, id string) (*MachineLease, error) {
	if id == "" {
		return nil, ErrNoMachineID
	}
	lease, err := send[*MachineLease](ctx, c, call{
		op:        "find_lease",
		method:    http.MethodGet,
		path:      machinePath(id, "lease"),
		machineID: id,
	})
	if IsLeaseNotFound(err) {
		return nil, nil
	}
	return lease, err
}

// AcquireLease takes a lease on a machine. A nil ttl uses the server default.
func (c *Client) AcquireLease(ctx context.Context, id string, ttl *int) (*MachineLease, error) {
	if id == "" {
		return nil, ErrNoMachineID
	}
	return send[*MachineLease](ctx, c, call{
		op:        "acquire_lease",
		method:    http.MethodPost,
		path:      machinePath(id, "lease"),
		query:     ttlQuery(ttl),
		machineID: id,
	})
}

// RefreshLease extends the lease identified by nonce.
func (c *Client) RefreshLease(ctx context.Context, id string, ttl *int, nonce string) (*MachineLease, error) {
	if id == "" {
		return nil, ErrNoMachineID
	}
	if err := validation.New().Required("nonce", nonce).Validate(); err != nil {
		return nil, err
	}
	return send[*MachineLease](ctx, c, call{
		op:        "refresh_lease",
		method:    http.MethodPost,
		path:      machinePath(id, "lease", "refresh"),
		query:     ttlQuery(ttl),
		nonce:     nonce,
		machineID: id,
	})
}

// ReleaseLease gives up the lease identified by nonce.
func (c *Client) ReleaseLease(ctx context.Context, id, nonce string) error {
	if id == "" {
		return ErrNoMachineID
	}
	_, err := send[discard](ctx, c, call{
		op:        "release_lease",
		method:    http.MethodDelete,
		path:      machinePath(id, "lease"),
		nonce:     nonce,
		machineID: id,
	})
	return err
}

func ttlQuery(ttl *int) map[string]string {
	if ttl == nil {
		return nil
	}
	return map[string]string{"ttl": strconv.Itoa(*ttl)}
}
