package store

import (
	"testing"

	"lifescript/pkg/domain"
)

func TestMemoryStoreCredentialRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	ok, err := s.HasUsername("ada")
	if err != nil {
		t.Fatalf("has username: %v", err)
	}
	if ok {
		t.Fatalf("empty store claims username exists")
	}

	if err := s.SaveCredential(domain.Credential{Username: "ada", Secret: "hash"}); err != nil {
		t.Fatalf("save credential: %v", err)
	}
	cred, found, err := s.GetCredential("ada")
	if err != nil || !found {
		t.Fatalf("get credential: found=%v err=%v", found, err)
	}
	if cred.Secret != "hash" {
		t.Fatalf("secret = %q, want hash", cred.Secret)
	}
}

func TestMemoryStoreUserRecordOverwrite(t *testing.T) {
	s := NewMemoryStore()
	u := domain.User{Username: "ada"}
	u.AddBook(domain.NewBook("Diary"))
	if err := s.SaveUserRecord(u); err != nil {
		t.Fatalf("save user record: %v", err)
	}

	u.ProfilePicURL = "https://example.com/ada.png"
	if err := s.SaveUserRecord(u); err != nil {
		t.Fatalf("overwrite user record: %v", err)
	}

	got, found, err := s.GetUserRecord("ada")
	if err != nil || !found {
		t.Fatalf("get user record: found=%v err=%v", found, err)
	}
	if got.ProfilePicURL != "https://example.com/ada.png" {
		t.Fatalf("record not overwritten in full: %+v", got)
	}
	if len(got.Books) != 1 || got.Books[0].Title != "Diary" {
		t.Fatalf("bookshelf lost on overwrite: %+v", got.Books)
	}
}

func TestMemorySessionStoreSingleMarker(t *testing.T) {
	s := NewMemorySessionStore()

	first, err := s.NewSession("ada")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	second, err := s.NewSession("grace")
	if err != nil {
		t.Fatalf("second session: %v", err)
	}

	if _, found, _ := s.UsernameByToken(first); found {
		t.Fatalf("replaced token still resolves")
	}
	username, found, err := s.UsernameByToken(second)
	if err != nil || !found {
		t.Fatalf("current token lookup: found=%v err=%v", found, err)
	}
	if username != "grace" {
		t.Fatalf("username = %q, want grace", username)
	}

	if err := s.DeleteSession(second); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, found, _ := s.UsernameByToken(second); found {
		t.Fatalf("deleted token still resolves")
	}
}
