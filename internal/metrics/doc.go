// Package metrics holds the Prometheus collectors for the API, the
// background task runner and the outbound mail circuit breaker.
//
// Collectors register with the default registry at init, so the
// promhttp handler mounted at /metrics exposes them without further wiring.
package metrics
