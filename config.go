package authcore

import (
	"errors"
	"time"
)

// Config is the full engine configuration. Construct it from
// DefaultConfig and override what you need; Build validates the result.
type Config struct {
	JWT          JWTConfig
	Registration RegistrationConfig
	OTP          OTPConfig
	RateLimit    RateLimitConfig
	CSRF         CSRFConfig
	Password     PasswordConfig
	Mail         MailConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the stateless token pair. AccessTTL is minutes-
// scale; RefreshTTL days-scale, and it also bounds how long a revocation
// marker must outlive the tokens it invalidates.
type JWTConfig struct {
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
REGISTRATION CONFIG
====================================
*/

// RegistrationConfig governs the pending-registration window.
type RegistrationConfig struct {
	PendingTTL  time.Duration
	RedisPrefix string
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig governs the second-factor challenge. MaxAttempts caps
// mismatches per challenge; reaching it destroys the challenge.
type OTPConfig struct {
	ChallengeTTL time.Duration
	Digits       int
	MaxAttempts  int
	RedisPrefix  string
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig governs the presence-marker throttle. A marker is
// written only after the guarded operation fully succeeds, so transient
// failures do not consume the caller's window.
type RateLimitConfig struct {
	Enabled     bool
	Window      time.Duration
	RedisPrefix string
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig governs the per-user anti-forgery token. TTL defaults to the
// refresh TTL when zero.
type CSRFConfig struct {
	TTL         time.Duration
	RedisPrefix string
}

// PasswordConfig mirrors password.Config at the engine surface.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// MailConfig carries the subject lines and link base used by the bundled
// templates. Delivery itself is the Notifier collaborator's concern.
type MailConfig struct {
	AppName       string
	VerifyLinkURL string // token is appended as the final path segment
	VerifySubject string
	OTPSubject    string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process metrics collection.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: 15-minute access
// tokens, 7-day refresh tokens, 5-minute pending/OTP windows, 60-second
// rate markers, 6-digit codes with a 5-mismatch cap.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			SigningMethod: "ed25519",
			Leeway:        30 * time.Second,
		},
		Registration: RegistrationConfig{
			PendingTTL:  5 * time.Minute,
			RedisPrefix: "pr",
		},
		OTP: OTPConfig{
			ChallengeTTL: 5 * time.Minute,
			Digits:       6,
			MaxAttempts:  5,
			RedisPrefix:  "otp",
		},
		RateLimit: RateLimitConfig{
			Enabled:     true,
			Window:      60 * time.Second,
			RedisPrefix: "rl",
		},
		CSRF: CSRFConfig{
			RedisPrefix: "csrf",
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        2,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Mail: MailConfig{
			AppName:       "authcore",
			VerifySubject: "Verify your email for account creation",
			OTPSubject:    "Your login verification code",
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run with. It is
// called by Build; direct use is only needed when bypassing the builder.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 || c.JWT.AccessTTL > time.Hour {
		return errors.New("JWT.AccessTTL must be in (0, 1h]")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT.RefreshTTL must exceed AccessTTL")
	}
	switch c.JWT.SigningMethod {
	case "ed25519", "hs256":
	default:
		return errors.New("JWT.SigningMethod must be ed25519 or hs256")
	}

	if c.Registration.PendingTTL <= 0 {
		return errors.New("Registration.PendingTTL must be positive")
	}
	if c.Registration.RedisPrefix == "" {
		return errors.New("Registration.RedisPrefix must be set")
	}

	if c.OTP.ChallengeTTL <= 0 {
		return errors.New("OTP.ChallengeTTL must be positive")
	}
	if c.OTP.Digits < 6 || c.OTP.Digits > 10 {
		return errors.New("OTP.Digits must be in [6, 10]")
	}
	if c.OTP.MaxAttempts < 1 {
		return errors.New("OTP.MaxAttempts must be >= 1")
	}
	if c.OTP.RedisPrefix == "" {
		return errors.New("OTP.RedisPrefix must be set")
	}

	if c.RateLimit.Enabled && c.RateLimit.Window <= 0 {
		return errors.New("RateLimit.Window must be positive when enabled")
	}
	if c.RateLimit.RedisPrefix == "" {
		return errors.New("RateLimit.RedisPrefix must be set")
	}

	if c.CSRF.RedisPrefix == "" {
		return errors.New("CSRF.RedisPrefix must be set")
	}
	if c.CSRF.TTL < 0 {
		return errors.New("CSRF.TTL must not be negative")
	}

	return nil
}

// csrfTTL resolves the effective anti-forgery token lifetime.
func (c *Config) csrfTTL() time.Duration {
	if c.CSRF.TTL > 0 {
		return c.CSRF.TTL
	}
	return c.JWT.RefreshTTL
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
