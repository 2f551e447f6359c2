package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisSessionStore(mr.Addr(), "", time.Hour)

	token, err := s.NewSession("ada")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	username, found, err := s.UsernameByToken(token)
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if username != "ada" {
		t.Fatalf("username = %q, want ada", username)
	}

	if _, found, _ := s.UsernameByToken("bogus"); found {
		t.Fatalf("bogus token resolved")
	}
}

func TestRedisSessionStoreReplacesMarker(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisSessionStore(mr.Addr(), "", time.Hour)

	first, err := s.NewSession("ada")
	if err != nil {
		t.Fatalf("first session: %v", err)
	}
	if _, err := s.NewSession("grace"); err != nil {
		t.Fatalf("second session: %v", err)
	}
	if _, found, _ := s.UsernameByToken(first); found {
		t.Fatalf("old marker survived a new login")
	}
}

func TestRedisSessionStoreExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisSessionStore(mr.Addr(), "", time.Minute)

	token, err := s.NewSession("ada")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	mr.FastForward(2 * time.Minute)
	if _, found, _ := s.UsernameByToken(token); found {
		t.Fatalf("expired marker still resolves")
	}
}

func TestRedisSessionStoreDeleteOnlyMatchingToken(t *testing.T) {
	mr := miniredis.RunT(t)
	s := NewRedisSessionStore(mr.Addr(), "", time.Hour)

	token, err := s.NewSession("ada")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession("other"); err != nil {
		t.Fatalf("delete mismatched token: %v", err)
	}
	if _, found, _ := s.UsernameByToken(token); !found {
		t.Fatalf("mismatched delete cleared the marker")
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, found, _ := s.UsernameByToken(token); found {
		t.Fatalf("marker survived delete")
	}
}
