package reset

import (
	"context"
	"testing"
	"time"
)

func TestStoreConsumeIsSingleUse(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	if err := s.Put(ctx, "a@b.com", "123456"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	ok, err := s.Consume(ctx, "a@b.com", "123456")
	if err != nil || !ok {
		t.Fatalf("Consume = %v, %v, want true", ok, err)
	}
	ok, err = s.Consume(ctx, "a@b.com", "123456")
	if err != nil || ok {
		t.Fatalf("second Consume = %v, %v, want false", ok, err)
	}
}

func TestStoreConsumeWrongCode(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	if err := s.Put(ctx, "a@b.com", "123456"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if ok, _ := s.Consume(ctx, "a@b.com", "654321"); ok {
		t.Fatalf("wrong code accepted")
	}
	if ok, _ := s.Consume(ctx, "a@b.com", ""); ok {
		t.Fatalf("empty code accepted")
	}
	// The stored code must survive failed attempts.
	if ok, _ := s.Consume(ctx, "a@b.com", "123456"); !ok {
		t.Fatalf("correct code rejected after failed attempts")
	}
}

func TestStorePutReplacesCode(t *testing.T) {
	s := NewStore(nil)
	ctx := context.Background()
	_ = s.Put(ctx, "a@b.com", "111111")
	_ = s.Put(ctx, "a@b.com", "222222")
	if ok, _ := s.Consume(ctx, "a@b.com", "111111"); ok {
		t.Fatalf("replaced code accepted")
	}
	_ = s.Put(ctx, "a@b.com", "222222")
	if ok, _ := s.Consume(ctx, "a@b.com", "222222"); !ok {
		t.Fatalf("latest code rejected")
	}
}

func TestStoreExpiry(t *testing.T) {
	s := NewStore(nil)
	s.ttl = -time.Second
	ctx := context.Background()
	_ = s.Put(ctx, "a@b.com", "123456")
	if ok, _ := s.Consume(ctx, "a@b.com", "123456"); ok {
		t.Fatalf("expired code accepted")
	}
}
