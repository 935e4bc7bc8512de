package flaps

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/kbukum/flyio-api/logger"
	"github.com/kbukum/flyio-api/machine"
	"github.com/kbukum/flyio-api/resilience"
)

// Bounds of a single server-side wait.
const (
	MinWaitTimeout = time.Second
	MaxWaitTimeout = 60 * time.Second

	waitPollTimeout = 2 * time.Second
	waitSlack       = 100 * time.Millisecond
)

// Wait blocks server-side until m reaches state or timeout passes. An empty
// state waits for started. timeout is clamped to [MinWaitTimeout,
// MaxWaitTimeout] and sent in whole seconds. A timeout is reported as
// DesiredStateNotReachedError.
func (c *Client) Wait(ctx context.Context, m *machine.Machine, state machine.State, timeout time.Duration) error {
	if m == nil || m.ID == "" {
		return ErrNoMachineID
	}
	if state == "" {
		state = machine.StateStarted
	}
	timeout = min(max(timeout, MinWaitTimeout), MaxWaitTimeout)

	_, err := send[discard](ctx, c, call{
		op:     "wait",
		method: http.MethodGet,
		path:   machinePath(m.ID, "wait"),
		query: map[string]string{
			"instance_id": m.CurrentInstanceID(),
			"state":       string(state),
			"timeout":     strconv.Itoa(int(timeout / time.Second)),
		},
		machineID: m.ID,
		waitState: state,
	})
	return err
}

// WaitForState polls Wait with short server-side timeouts until m reaches
// state or timeout passes. Only DesiredStateNotReachedError is retried. A
// timeout of zero or less makes a single attempt.
func (c *Client) WaitForState(ctx context.Context, m *machine.Machine, state machine.State, timeout time.Duration) error {
	if m == nil || m.ID == "" {
		return ErrNoMachineID
	}
	deadline := time.Now().Add(timeout + waitSlack)

	cfg := resilience.RetryConfig{
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		BackoffFactor:  1.5,
		Jitter:         0.5,
		MaxElapsed:     timeout,
		RetryIf:        IsDesiredStateNotReached,
		OnRetry: func(attempt int, err error, next time.Duration) {
			c.metrics.RecordRetry(ctx, "wait")
			c.log.Debug("machine not in desired state yet", logger.Fields(
				logger.FieldMachineID, m.ID,
				logger.FieldAttempt, attempt,
				"state", string(state),
				"backoff_ms", next.Milliseconds(),
			))
		},
	}
	if timeout <= 0 {
		cfg.MaxAttempts = 1
	}
	return resilience.RetryFunc(ctx, cfg, func() error {
		return c.Wait(ctx, m, state, min(time.Until(deadline), waitPollTimeout))
	})
}
