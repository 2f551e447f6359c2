package auth

import "testing"

func TestHashPasswordAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("sky")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" || hash == "sky" {
		t.Fatalf("expected non-trivial hash, got %q", hash)
	}
	if !CheckPassword("sky", hash) {
		t.Fatalf("expected password check to pass")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected password check to fail")
	}
}

func TestCheckPasswordMalformedHash(t *testing.T) {
	if CheckPassword("sky", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not validate")
	}
}
