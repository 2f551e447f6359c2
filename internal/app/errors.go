package app

import "errors"

var (
	// ErrUsernameTaken and ErrInvalidCredentials are shown to end users on
	// the auth form; the messages deliberately match between register and
	// login retries.
	ErrUsernameTaken      = errors.New("Username already exists.")
	ErrInvalidCredentials = errors.New("Invalid username or password.")

	ErrCredentialsRequired = errors.New("Username and password are required.")
	ErrEntryRequired       = errors.New("Please write something before creating a chapter.")

	ErrTitleRequired    = errors.New("book title required")
	ErrInvalidTone      = errors.New("unknown tone")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrBookNotFound     = errors.New("book not found")

	// ErrGenerationInFlight rejects a second submission for a book whose
	// previous generation has not resolved yet.
	ErrGenerationInFlight = errors.New("a chapter is already being generated for this book")

	// ErrStaleGeneration rejects a submission, or discards a generation
	// result, when the target book is no longer the active one.
	ErrStaleGeneration = errors.New("book is no longer active")
)
