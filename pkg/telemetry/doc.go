// Package telemetry provides observability instrumentation for droidseed.
//
// The telemetry package integrates structured logging (zerolog), distributed
// tracing (OpenTelemetry), metrics (Prometheus), and event publishing into a
// unified system for monitoring device seeding runs.
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
// Add telemetry to context so the engine can pick it up:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with run and domain fields:
//
//	logger := tel.Logger.NewComponentLogger("engine")
//	logger = logger.WithRunID("run-123").WithDomain("contacts")
//	logger.Info("configuring domain")
//	logger.WithError(err).Error("domain failed")
//
// # Tracing and Metrics
//
// Runs, domain passes, and individual device operations each get spans and
// counters. Tracing exports to OTLP or stdout depending on configuration;
// metrics are served on a Prometheus endpoint when enabled.
//
// # Events
//
// The event publisher delivers run and domain lifecycle events to
// subscribers, which the CLI uses for progress output.
package telemetry
