package flaps

import (
	"context"
	"net/http"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/kbukum/flyio-api/logger"
	"github.com/kbukum/flyio-api/machine"
	"github.com/kbukum/flyio-api/resilience"
	"github.com/kbukum/flyio-api/util"
)

// listNotFoundTimeout bounds how long ListFlyAppsMachines waits for a freshly
// created app to become visible.
const listNotFoundTimeout = 15 * time.Minute

// List returns the app's machines, filtered by state when state is set.
func (c *Client) List(ctx context.Context, state machine.State) ([]*machine.Machine, error) {
	var query map[string]string
	if state != "" {
		query = map[string]string{"state": string(state)}
	}
	return send[[]*machine.Machine](ctx, c, call{
		op:     "list",
		method: http.MethodGet,
		query:  query,
	})
}

// ListActive returns the app's active machines, leaving out release command
// and console machines.
func (c *Client) ListActive(ctx context.Context) ([]*machine.Machine, error) {
	machines, err := c.List(ctx, "")
	if err != nil {
		return nil, err
	}
	return util.Filter(machines, func(m *machine.Machine) bool {
		return !m.IsReleaseCommandMachine() && !m.IsFlyAppsConsole() && m.IsActive()
	}), nil
}

// ListFlyAppsMachines returns the app's machines with the release command
// machine split out. A 404 is retried while the app is being created.
func (c *Client) ListFlyAppsMachines(ctx context.Context) (*FlyAppsMachines, error) {
	cfg := resilience.RetryConfig{
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  1.5,
		Jitter:         0.5,
		MaxElapsed:     listNotFoundTimeout,
		RetryIf:        IsNotFound,
		OnRetry: func(attempt int, err error, next time.Duration) {
			c.metrics.RecordRetry(ctx, "list")
			c.log.Debug("app machines not found yet", logger.Fields(
				logger.FieldAttempt, attempt,
				"backoff_ms", next.Milliseconds(),
			))
		},
	}
	all, err := resilience.Retry(ctx, cfg, func() ([]*machine.Machine, error) {
		return c.List(ctx, "")
	})
	if err != nil {
		return nil, err
	}

	out := &FlyAppsMachines{Machines: make([]*machine.Machine, 0, len(all))}
	for _, m := range all {
		switch {
		case m.IsReleaseCommandMachine():
			if out.ReleaseCmdMachine == nil {
				out.ReleaseCmdMachine = m
			}
		case m.IsFlyAppsConsole():
		default:
			out.Machines = append(out.Machines, m)
		}
	}
	return out, nil
}

// GetMany fetches machines concurrently. Results keep the order of ids and
// the first error cancels the remaining requests.
func (c *Client) GetMany(ctx context.Context, ids []string) ([]*machine.Machine, error) {
	out := make([]*machine.Machine, len(ids))
	p := pool.New().
		WithMaxGoroutines(c.concurrency).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()
	for i, id := range ids {
		p.Go(func(ctx context.Context) error {
			m, err := c.Get(ctx, id)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
