// Package metrics provides observability hooks for chat, search, and
// persistence operations.
//
// The package follows the Null Object pattern: components receive a
// Recorder through dependency injection and default to NoopRecorder, so
// metrics collection needs no nil checks at call sites. Enabling metrics
// means swapping in NewPrometheusRecorder and mounting HTTPHandler on the
// server's /metrics route.
package metrics
