// Package metrics tracks sync activity for logging and the health endpoint.
//
// Key counters:
//   - Invocations started, succeeded, and failed
//   - Items fetched, empty, and failed per region
//   - Records written to the sinks
package metrics
