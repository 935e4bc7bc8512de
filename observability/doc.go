// Package observability wires OpenTelemetry tracing and metrics.
//
// Setup installs OTLP/HTTP exporters when enabled:
//
//	shutdown, err := observability.Setup(ctx, cfg.Observability, "flapsctl", version, env)
//	defer shutdown(context.Background())
//
// Clients take providers explicitly and fall back to the globals:
//
//	ctx, span := observability.Tracer(tp).Start(ctx, "flaps.get")
//	defer observability.EndSpan(span, err)
package observability
