package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"strings"
	"testing"
	"time"
)

func testHSConfig() Config {
	return Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("0123456789abcdef0123456789abcdef"),
	}
}

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return m
}

func TestManagerHS256Roundtrip(t *testing.T) {
	m := newTestManager(t, testHSConfig())

	access, err := m.CreateAccess("u1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	refresh, err := m.CreateRefresh("u1")
	if err != nil {
		t.Fatalf("CreateRefresh failed: %v", err)
	}

	claims, err := m.ParseAccess(access)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.UID != "u1" || claims.Kind != KindAccess || claims.IssuedAt == nil {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	claims, err = m.ParseRefresh(refresh)
	if err != nil {
		t.Fatalf("ParseRefresh failed: %v", err)
	}
	if claims.Kind != KindRefresh {
		t.Fatalf("Kind = %q, want refresh", claims.Kind)
	}
}

func TestManagerEd25519Roundtrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	m := newTestManager(t, Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "authcore-test",
	})

	token, err := m.CreateAccess("u1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}
	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess failed: %v", err)
	}
	if claims.UID != "u1" || claims.Issuer != "authcore-test" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestManagerRejectsKindConfusion(t *testing.T) {
	m := newTestManager(t, testHSConfig())

	access, _ := m.CreateAccess("u1")
	refresh, _ := m.CreateRefresh("u1")

	if _, err := m.ParseRefresh(access); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid parsing access as refresh, got %v", err)
	}
	if _, err := m.ParseAccess(refresh); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid parsing refresh as access, got %v", err)
	}
}

func TestManagerRejectsTampering(t *testing.T) {
	m := newTestManager(t, testHSConfig())

	token, _ := m.CreateAccess("u1")

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", token)
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	if _, err := m.ParseAccess(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for tampered payload, got %v", err)
	}
	if _, err := m.ParseAccess("garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for garbage, got %v", err)
	}
}

func TestManagerRejectsWrongKey(t *testing.T) {
	m := newTestManager(t, testHSConfig())

	other := testHSConfig()
	other.PrivateKey = []byte("ffffffffffffffffffffffffffffffff")
	m2 := newTestManager(t, other)

	token, _ := m.CreateAccess("u1")
	if _, err := m2.ParseAccess(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid under different key, got %v", err)
	}
}

func TestManagerExpiry(t *testing.T) {
	cfg := testHSConfig()
	cfg.AccessTTL = time.Millisecond
	m := newTestManager(t, cfg)

	token, err := m.CreateAccess("u1")
	if err != nil {
		t.Fatalf("CreateAccess failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	if _, err := m.ParseAccess(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid after expiry, got %v", err)
	}
}

func TestManagerConfigValidation(t *testing.T) {
	base := testHSConfig()

	bad := base
	bad.RefreshTTL = base.AccessTTL
	if _, err := NewManager(bad); err == nil {
		t.Fatal("expected error when refresh TTL <= access TTL")
	}

	bad = base
	bad.PrivateKey = nil
	if _, err := NewManager(bad); err == nil {
		t.Fatal("expected error for hs256 without key")
	}

	bad = base
	bad.SigningMethod = "rs512"
	if _, err := NewManager(bad); err == nil {
		t.Fatal("expected error for unsupported method")
	}

	bad = base
	bad.Leeway = 5 * time.Minute
	if _, err := NewManager(bad); err == nil {
		t.Fatal("expected error for excessive leeway")
	}

	if _, err := NewManager(Config{
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		SigningMethod: MethodEd25519,
	}); err == nil {
		t.Fatal("expected error for ed25519 without public key")
	}
}

func TestManagerRejectsEmptyUID(t *testing.T) {
	m := newTestManager(t, testHSConfig())

	if _, err := m.CreateAccess(""); err == nil {
		t.Fatal("expected error for empty uid")
	}
	if _, err := m.CreateAccess("   "); err == nil {
		t.Fatal("expected error for blank uid")
	}
}
