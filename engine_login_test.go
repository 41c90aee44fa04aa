package authcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoginFlowSuccess(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine, _, notifier := newTestEngine(t, rdb, testConfig())
	ctx := context.Background()

	user := registerUser(t, engine, "Alice", "alice@example.com", "correct-horse")

	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}

	mail := notifier.last(t)
	if mail.To != "alice@example.com" {
		t.Fatalf("OTP mail sent to %q", mail.To)
	}
	code := otpFromMail(t, mail)
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	creds, err := engine.VerifyOTP(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
	if creds.UserID != user.ID {
		t.Fatalf("credentials for %q, want %q", creds.UserID, user.ID)
	}
	if creds.AccessToken == "" || creds.RefreshToken == "" || creds.CSRFToken == "" {
		t.Fatalf("incomplete credential set: %+v", creds)
	}

	result, err := engine.ValidateAccess(ctx, creds.AccessToken)
	if err != nil {
		t.Fatalf("ValidateAccess failed: %v", err)
	}
	if result.UserID != user.ID {
		t.Fatalf("access token for %q, want %q", result.UserID, user.ID)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine, _, notifier := newTestEngine(t, rdb, testConfig())
	ctx := context.Background()

	registerUser(t, engine, "Alice", "alice@example.com", "correct-horse")
	before := notifier.count()

	// Wrong password and unknown email are indistinguishable.
	if err := engine.BeginLogin(ctx, "alice@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if err := engine.BeginLogin(ctx, "nobody@example.com", "correct-horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	if notifier.count() != before {
		t.Fatal("no OTP mail should be sent on failed password check")
	}
}

func TestOTPSingleUse(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine, _, notifier := newTestEngine(t, rdb, testConfig())
	ctx := context.Background()

	registerUser(t, engine, "Alice", "alice@example.com", "correct-horse")

	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}
	code := otpFromMail(t, notifier.last(t))

	if _, err := engine.VerifyOTP(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}

	// A match destroys the challenge; replaying the same code finds none.
	if _, err := engine.VerifyOTP(ctx, "alice@example.com", code); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired on replay, got %v", err)
	}
}

func TestOTPOverwriteOnReissue(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := testConfig()
	cfg.RateLimit.Enabled = false
	engine, _, notifier := newTestEngine(t, rdb, cfg)
	ctx := context.Background()

	registerUser(t, engine, "Alice", "alice@example.com", "correct-horse")

	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("first BeginLogin failed: %v", err)
	}
	firstCode := otpFromMail(t, notifier.last(t))

	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("second BeginLogin failed: %v", err)
	}
	secondCode := otpFromMail(t, notifier.last(t))

	if firstCode != secondCode {
		// Only the newest challenge can match.
		if _, err := engine.VerifyOTP(ctx, "alice@example.com", firstCode); !errors.Is(err, ErrOTPMismatch) {
			t.Fatalf("expected ErrOTPMismatch for superseded code, got %v", err)
		}
	}

	if _, err := engine.VerifyOTP(ctx, "alice@example.com", secondCode); err != nil {
		t.Fatalf("VerifyOTP with current code failed: %v", err)
	}
}

func TestOTPAttemptCap(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := testConfig()
	engine, _, notifier := newTestEngine(t, rdb, cfg)
	ctx := context.Background()

	registerUser(t, engine, "Alice", "alice@example.com", "correct-horse")

	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}
	code := otpFromMail(t, notifier.last(t))

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 1; i < cfg.OTP.MaxAttempts; i++ {
		if _, err := engine.VerifyOTP(ctx, "alice@example.com", wrong); !errors.Is(err, ErrOTPMismatch) {
			t.Fatalf("attempt %d: expected ErrOTPMismatch, got %v", i, err)
		}
	}

	// The capping attempt destroys the challenge.
	if _, err := engine.VerifyOTP(ctx, "alice@example.com", wrong); !errors.Is(err, ErrOTPAttemptsExceeded) {
		t.Fatalf("expected ErrOTPAttemptsExceeded, got %v", err)
	}

	// Even the right code is useless now.
	if _, err := engine.VerifyOTP(ctx, "alice@example.com", code); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired after cap, got %v", err)
	}
}

func TestOTPExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := testConfig()
	engine, _, notifier := newTestEngine(t, rdb, cfg)
	ctx := context.Background()

	registerUser(t, engine, "Alice", "alice@example.com", "correct-horse")

	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}
	code := otpFromMail(t, notifier.last(t))

	mr.FastForward(cfg.OTP.ChallengeTTL + time.Second)

	if _, err := engine.VerifyOTP(ctx, "alice@example.com", code); !errors.Is(err, ErrOTPExpired) {
		t.Fatalf("expected ErrOTPExpired after TTL, got %v", err)
	}
}

func TestOTPMalformedCodeDoesNotChargeAttempts(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	cfg := testConfig()
	engine, _, notifier := newTestEngine(t, rdb, cfg)
	ctx := context.Background()

	registerUser(t, engine, "Alice", "alice@example.com", "correct-horse")

	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}
	code := otpFromMail(t, notifier.last(t))

	for _, bad := range []string{"", "12345", "1234567", "12a456", strings.Repeat("9", 64)} {
		if _, err := engine.VerifyOTP(ctx, "alice@example.com", bad); !errors.Is(err, ErrOTPMismatch) {
			t.Fatalf("code %q: expected ErrOTPMismatch, got %v", bad, err)
		}
	}

	// None of those touched the stored challenge.
	if _, err := engine.VerifyOTP(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("VerifyOTP failed after malformed attempts: %v", err)
	}
}

func TestLoginRateLimited(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine, _, _ := newTestEngine(t, rdb, testConfig())
	ctx := context.Background()

	registerUser(t, engine, "Alice", "alice@example.com", "correct-horse")

	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("BeginLogin failed: %v", err)
	}
	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); !errors.Is(err, ErrLoginRateLimited) {
		t.Fatalf("expected ErrLoginRateLimited, got %v", err)
	}
}

func TestLoginNotifyFailureKeepsChallenge(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine, _, notifier := newTestEngine(t, rdb, testConfig())
	ctx := context.Background()

	registerUser(t, engine, "Alice", "alice@example.com", "correct-horse")

	notifier.setFail(true)
	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); !errors.Is(err, ErrNotifyFailed) {
		t.Fatalf("expected ErrNotifyFailed, got %v", err)
	}

	// Window not consumed; the retry goes straight through.
	notifier.setFail(false)
	if err := engine.BeginLogin(ctx, "alice@example.com", "correct-horse"); err != nil {
		t.Fatalf("retry after notify failure: %v", err)
	}
	code := otpFromMail(t, notifier.last(t))
	if _, err := engine.VerifyOTP(ctx, "alice@example.com", code); err != nil {
		t.Fatalf("VerifyOTP failed: %v", err)
	}
}
