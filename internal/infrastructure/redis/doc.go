// Package redis provides the key-value store connection used for
// refresh session state.
//
// The wrapper exposes the minimal surface the session store needs:
// Set with TTL, Get, Del, and a connectivity health check. Session
// entries expire server-side via the TTL, so there is no sweeper.
package redis
