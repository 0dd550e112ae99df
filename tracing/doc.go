// Package tracing wraps OpenTelemetry so the scheduler can open one span per
// task dispatch without importing the upstream packages everywhere. Until
// Init or InitWithExporter is called spans are no-ops.
package tracing
