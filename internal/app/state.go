package app

// View names a top-level screen of the application.
type View string

const (
	ViewAuth      View = "auth"
	ViewBooksList View = "booksList"
	ViewJournal   View = "journal"
	ViewProfile   View = "profile"
)

// JournalMode is the sub-mode within the journal view.
type JournalMode string

const (
	ModeWrite JournalMode = "write"
	ModeRead  JournalMode = "read"
)

// State is the explicit navigation record for the active session. It is
// replaced as a whole on every transition; callers only ever observe
// complete snapshots.
type State struct {
	View         View        `json:"view"`
	ActiveBookID string      `json:"activeBookId,omitempty"`
	Mode         JournalMode `json:"mode,omitempty"`
	ReadIndex    int         `json:"readIndex"`

	// returnView remembers where the profile screen was opened from so
	// closing it can go back to either the bookshelf or the journal.
	returnView View
}

func initialState() State {
	return State{View: ViewAuth}
}

// clampReadIndex keeps the read cursor inside the chronological sequence.
// A zero-chapter book pins the cursor at 0.
func clampReadIndex(idx, chapterCount int) int {
	if idx < 0 {
		return 0
	}
	if chapterCount == 0 {
		return 0
	}
	if idx > chapterCount-1 {
		return chapterCount - 1
	}
	return idx
}
