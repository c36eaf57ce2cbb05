package session

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}}
}

func (s *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.values[key] = value.(string)
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

func (s *memoryStore) AccessSessionKey(accessID string) string {
	return "omega:session:access:" + accessID
}

func TestGenerateAndHasSession(t *testing.T) {
	mgr, err := NewManager(newMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	ctx := context.Background()

	refresh, err := mgr.Generate(ctx, "acc-1")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if refresh == "" {
		t.Fatal("expected non-empty refresh token")
	}

	ok, err := mgr.HasSession(ctx, "acc-1")
	if err != nil {
		t.Fatalf("HasSession returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected session to exist")
	}

	ok, err = mgr.HasSession(ctx, "acc-missing")
	if err != nil {
		t.Fatalf("HasSession returned error: %v", err)
	}
	if ok {
		t.Fatal("expected no session for unknown access id")
	}
}

func TestRotateReplacesSession(t *testing.T) {
	store := newMemoryStore()
	mgr, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	ctx := context.Background()

	refresh, err := mgr.Generate(ctx, "acc-old")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	newRefresh, err := mgr.Rotate(ctx, "acc-old", refresh, "acc-new")
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}
	if newRefresh == refresh {
		t.Fatal("expected rotated refresh token to differ")
	}

	if ok, _ := mgr.HasSession(ctx, "acc-old"); ok {
		t.Fatal("expected old session to be revoked")
	}
	if ok, _ := mgr.HasSession(ctx, "acc-new"); !ok {
		t.Fatal("expected new session to exist")
	}
}

func TestRotateRejectsBadRefreshToken(t *testing.T) {
	mgr, err := NewManager(newMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := mgr.Generate(ctx, "acc-1"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if _, err := mgr.Rotate(ctx, "acc-1", "forged", "acc-2"); !errors.Is(err, ErrRefreshMismatch) {
		t.Fatalf("expected ErrRefreshMismatch, got %v", err)
	}
	if _, err := mgr.Rotate(ctx, "acc-unknown", "whatever", "acc-2"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	mgr, err := NewManager(newMemoryStore(), time.Hour)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := mgr.Generate(ctx, "acc-1"); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if err := mgr.Revoke(ctx, "acc-1"); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if err := mgr.Revoke(ctx, "acc-1"); err != nil {
		t.Fatalf("second Revoke returned error: %v", err)
	}
	if err := mgr.Revoke(ctx, ""); err != nil {
		t.Fatalf("Revoke with empty id returned error: %v", err)
	}
}
