// Package callog defines the call record written for every dispatched
// provider invocation, the Store contract its adapters implement, and
// shared helpers: sentinel errors and subject context scoping.
//
// Store adapters live in the memory and postgres subpackages. Recording is
// best effort; a failed write never fails the call that produced it.
package callog
