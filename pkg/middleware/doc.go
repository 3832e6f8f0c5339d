// Package middleware provides http.Handler middleware for klein
// applications: Prometheus metrics and OpenTelemetry tracing around the
// dispatch entry point. Register it with Klein.Use.
package middleware
