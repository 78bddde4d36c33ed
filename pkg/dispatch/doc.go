// Package dispatch routes invoke calls to registered providers.
//
// The Dispatcher is the composition root for the per-call cross-cutting
// hooks: structured log entries before and after each upstream call,
// Prometheus metrics (request count, latency, token totals), and a call
// record appended to the call-log store. Lookup errors and provider errors
// pass through to the caller unchanged; the call-record write is
// best-effort and never fails the call.
package dispatch
