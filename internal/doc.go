// Package internal contains helper utilities that are intentionally private to authcore,
// including secure random generation for verification tokens, OTP codes, and CSRF values.
//
// # Sub-packages
//
//   - audit — async event dispatch (Dispatcher + Sink implementations)
//   - metrics — lock-free counters and snapshots
//
// # What this package must NOT do
//
//   - Export types that appear in the public authcore API.
//   - Be imported by any package outside the authcore module.
package internal
