package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" {
		t.Fatalf("hash equals plaintext")
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Fatalf("VerifyPassword rejected correct password")
	}
	if VerifyPassword(hash, "wrong") {
		t.Fatalf("VerifyPassword accepted wrong password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if VerifyPassword("not-a-bcrypt-hash", "anything") {
		t.Fatalf("VerifyPassword accepted malformed hash")
	}
}
