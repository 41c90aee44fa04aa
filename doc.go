// Package authcore implements a credential and session lifecycle engine:
// registration with emailed verification links, password login with an
// emailed one-time-code second factor, JWT access/refresh token pairs
// with per-user revocation, and per-user anti-forgery tokens.
//
// All short-lived state (pending registrations, OTP challenges, rate
// markers, revocation timestamps, CSRF tokens) lives in Redis under a
// TTL and is never persisted by the engine. Durable accounts live behind
// the integrator's [UserStore]; outbound mail behind [Notifier].
//
// The package is designed for concurrent server workloads: [Engine]
// methods are safe to call from multiple goroutines after initialization
// through [Builder.Build].
//
// # Architecture boundaries
//
// authcore is the public surface. It exposes [Engine], [Builder],
// [Config], the collaborator interfaces, and value types (Credentials,
// AuthResult, MetricsSnapshot). Flow orchestration, store encodings,
// audit dispatch, and metrics live in unexported stores and under
// internal/ and are never exported.
//
// # Failure posture
//
// Rejections are deliberately coarse: completion of registration has one
// failure mode regardless of whether a token is unknown, expired, or
// already consumed; unknown email and wrong password fail identically;
// refresh failures never say why. Backend outages are the exception and
// surface as [ErrStoreUnavailable].
package authcore
