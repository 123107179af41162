// Package metrics exposes Prometheus metrics for the mock server.
//
// A Metrics value owns its own registry so several servers (and tests) can
// run side by side. Metric names are prefixed with "mockapi_".
//
// # Label Conventions
//
//   - method: uppercase HTTP method of the mock request
//   - status: numeric HTTP status code
//   - cache: hit, miss or bypass
//   - operation: admin operation name (publish, delete, list, status, openapi)
//
// Paths and route names are deliberately not used as labels since they are
// user-defined and unbounded.
package metrics
