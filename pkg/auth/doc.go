// Package auth provides pluggable authentication for the modelgate gateway.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from dispatch
// logic. The middleware also injects the caller's subject into the request
// context so call-log reads and writes are scoped per caller.
package auth
