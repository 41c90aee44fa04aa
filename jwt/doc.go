// Package jwt wraps github.com/golang-jwt/jwt/v5 behind a small manager
// that mints the access/refresh token pair used by the engine. Both token
// kinds are self-contained and verified without a store lookup; refresh
// tokens additionally carry iat so the engine can compare against the
// per-user revocation timestamp.
package jwt
