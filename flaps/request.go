package flaps

import (
	"context"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/flyio-api/httpclient"
	"github.com/kbukum/flyio-api/logger"
	"github.com/kbukum/flyio-api/machine"
	"github.com/kbukum/flyio-api/observability"
)

// call describes one Machines API request relative to the app URL.
type call struct {
	op        string
	method    string
	path      string
	query     map[string]string
	body      any
	nonce     string
	machineID string
	// waitState marks a wait request; a 408 then means the state was not
	// reached.
	waitState machine.State
}

// discard accepts any response body.
type discard struct{}

func (*discard) UnmarshalJSON([]byte) error { return nil }

// send executes c and decodes a successful body into T.
func send[T any](ctx context.Context, cl *Client, c call) (T, error) {
	attrs := []attribute.KeyValue{observability.AttrApp.String(cl.appName)}
	if c.machineID != "" {
		attrs = append(attrs, observability.AttrMachineID.String(c.machineID))
	}
	if c.waitState != "" {
		attrs = append(attrs, observability.AttrState.String(string(c.waitState)))
	}
	ctx, span := observability.StartSpan(ctx, cl.tracer, "flaps."+c.op, attrs...)
	log := cl.log
	if sc := span.SpanContext(); sc.IsValid() {
		log = log.WithContext(logger.ContextWithTrace(ctx, sc.TraceID().String(), sc.SpanID().String()))
	}

	headers := map[string]string{"Content-Type": "application/json"}
	if c.nonce != "" {
		headers[headerLeaseNonce] = c.nonce
	}

	start := time.Now()
	out, resp, err := httpclient.DoJSON[T](ctx, cl.http, httpclient.Request{
		Method:  c.method,
		Path:    c.path,
		Query:   c.query,
		Headers: headers,
		Body:    c.body,
	})
	elapsed := time.Since(start)

	fields := logger.Fields(
		logger.FieldOperation, c.op,
		logger.FieldDuration, elapsed.Milliseconds(),
	)
	if c.machineID != "" {
		fields[logger.FieldMachineID] = c.machineID
	}
	if resp != nil {
		fields[logger.FieldStatus] = resp.StatusCode
		if resp.RequestID != "" {
			fields[logger.FieldRequestID] = resp.RequestID
			span.SetAttributes(observability.AttrRequestID.String(resp.RequestID))
		}
	}

	if err != nil {
		err = mapError(c, resp, err)
		fields[logger.FieldError] = err.Error()
		log.Debug("machines api request failed", fields)
		cl.metrics.RecordOperation(ctx, c.op, "error", elapsed)
		cl.metrics.RecordError(ctx, c.op, errorKind(err))
		observability.EndSpan(span, err)
		var zero T
		return zero, err
	}

	log.Debug("machines api request", fields)
	cl.metrics.RecordOperation(ctx, c.op, "ok", elapsed)
	observability.EndSpan(span, nil)
	return out, nil
}

// machinePath joins an escaped machine id with optional sub-resources.
func machinePath(id string, sub ...string) string {
	p := url.PathEscape(id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}
