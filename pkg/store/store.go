package store

import "lifescript/pkg/domain"

// Store defines persistence for the credential list and per-user
// application records. Each record is overwritten in full on every
// save; there are no transactions spanning keys, so a crash between a
// credential save and the matching user-record save can leave the pair
// inconsistent until the next login repairs it.
type Store interface {
	// credentials
	SaveCredential(domain.Credential) error
	GetCredential(username string) (domain.Credential, bool, error)
	HasUsername(username string) (bool, error)

	// user records
	SaveUserRecord(domain.User) error
	GetUserRecord(username string) (domain.User, bool, error)
}

// SessionStore persists the single active-session marker. NewSession
// replaces any previous marker, keeping the at-most-one invariant of
// the single-user-per-device model.
type SessionStore interface {
	NewSession(username string) (string, error)
	UsernameByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
