package authcore

import (
	"context"
	"testing"
	"time"
)

func TestRevocationStoreRoundtrip(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newRevocationStore(rdb, time.Hour)
	ctx := context.Background()

	if _, ok, err := store.RevokedAt(ctx, "u1"); err != nil || ok {
		t.Fatalf("expected no marker, got ok=%v err=%v", ok, err)
	}

	at := time.Now()
	if err := store.Revoke(ctx, "u1", at); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	got, ok, err := store.RevokedAt(ctx, "u1")
	if err != nil || !ok {
		t.Fatalf("RevokedAt failed: ok=%v err=%v", ok, err)
	}
	if got.Unix() != at.Unix() {
		t.Fatalf("RevokedAt = %v, want %v (second granularity)", got.Unix(), at.Unix())
	}

	// Later revocations move the instant forward.
	later := at.Add(time.Hour)
	if err := store.Revoke(ctx, "u1", later); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}
	got, _, _ = store.RevokedAt(ctx, "u1")
	if got.Unix() != later.Unix() {
		t.Fatalf("RevokedAt = %v, want %v", got.Unix(), later.Unix())
	}
}

func TestRevocationStoreMarkerExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newRevocationStore(rdb, time.Minute)
	ctx := context.Background()

	if err := store.Revoke(ctx, "u1", time.Now()); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	// The marker only needs to outlive the refresh tokens it gates.
	mr.FastForward(time.Minute + time.Second)

	if _, ok, err := store.RevokedAt(ctx, "u1"); err != nil || ok {
		t.Fatalf("expected expired marker, got ok=%v err=%v", ok, err)
	}
}

func TestRevocationStoreCorruptMarker(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := newRevocationStore(rdb, time.Hour)
	ctx := context.Background()

	if err := rdb.Set(ctx, "rev:u1", "not-a-timestamp", time.Hour).Err(); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Corruption reads as "no revocation" instead of locking the user out.
	if _, ok, err := store.RevokedAt(ctx, "u1"); err != nil || ok {
		t.Fatalf("expected corrupt marker ignored, got ok=%v err=%v", ok, err)
	}
}
