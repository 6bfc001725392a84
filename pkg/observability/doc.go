// Package observability provides structured logging and Prometheus metrics.
//
// # Structured Logging
//
// Loggers are logrus loggers with a JSON formatter:
//
//	logger := observability.NewLogger(observability.ParseLogLevel("debug"), os.Stderr)
//	logger.WithField("extension", "Performance").Info("Extension enabled")
//
// # Prometheus Metrics
//
// NewMetrics registers every collector on the given registry. A nil
// *Metrics is valid and records nothing, so components take metrics as an
// optional dependency:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordSwitch("profiles", err)
//
// Serve them with:
//
//	mux := http.NewServeMux()
//	observability.RegisterMetricsEndpoint(mux, registry)
//
// # Panic Recovery
//
// Goroutines that run user-supplied hooks defer RecoverPanic so a panic is
// logged with its stack instead of crashing the process:
//
//	defer observability.RecoverPanic(logger, "event delivery")
package observability
