package domain

// Tone is the narrative style applied when a journal entry is rewritten
// into a chapter.
type Tone string

const (
	TonePoetic     Tone = "Poetic"
	ToneHumorous   Tone = "Humorous"
	ToneDramatic   Tone = "Dramatic"
	ToneMinimalist Tone = "Minimalist"
	ToneReflective Tone = "Reflective"
)

// DefaultTone is preselected for new entries.
const DefaultTone = ToneReflective

// Tones lists the selectable tones in display order.
func Tones() []Tone {
	return []Tone{TonePoetic, ToneHumorous, ToneDramatic, ToneMinimalist, ToneReflective}
}

// Valid reports whether t is one of the enumerated tones.
func (t Tone) Valid() bool {
	switch t {
	case TonePoetic, ToneHumorous, ToneDramatic, ToneMinimalist, ToneReflective:
		return true
	}
	return false
}

// Chapter is one journal-entry-to-story unit. All fields are fixed at
// creation; chapters are never edited or deleted.
type Chapter struct {
	ID        string `json:"id"`
	RawText   string `json:"rawText"`
	StoryText string `json:"storyText"`
	Tone      Tone   `json:"tone"`
	Date      string `json:"date"`
}

// Book is a named collection of chapters owned by one user. Chapters
// are stored most-recent-first.
type Book struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Chapters []Chapter `json:"chapters"`
}

// User is the per-user application record persisted as a whole after
// every mutation. Username doubles as the primary key.
type User struct {
	Username      string `json:"username"`
	ProfilePicURL string `json:"profilePicUrl,omitempty"`
	Books         []Book `json:"books"`
}

// Credential is a username/secret pair kept separately from user data.
// Secret holds a bcrypt hash, never the raw password.
type Credential struct {
	Username string `json:"username"`
	Secret   string `json:"secret"`
}
