package domain

import "github.com/google/uuid"

// NewBook builds an empty book with a fresh identifier. Two books with
// the same title are still distinct books.
func NewBook(title string) Book {
	return Book{
		ID:    uuid.NewString(),
		Title: title,
	}
}

// Book returns a pointer into the user's shelf, or false when the ID is
// unknown.
func (u *User) Book(id string) (*Book, bool) {
	for i := range u.Books {
		if u.Books[i].ID == id {
			return &u.Books[i], true
		}
	}
	return nil, false
}

// AddBook appends a book to the shelf in insertion order.
func (u *User) AddBook(b Book) {
	u.Books = append(u.Books, b)
}

// RenameBook swaps the title in place, preserving the identifier and
// chapter sequence. Returns false when the ID is unknown.
func (u *User) RenameBook(id, title string) bool {
	b, ok := u.Book(id)
	if !ok {
		return false
	}
	b.Title = title
	return true
}

// AppendChapter inserts ch at the head of the sequence so the stored
// order stays most-recent-first.
func (b *Book) AppendChapter(ch Chapter) {
	b.Chapters = append([]Chapter{ch}, b.Chapters...)
}

// LatestChapter returns the sequence head, the most recently written
// chapter.
func (b *Book) LatestChapter() (Chapter, bool) {
	if len(b.Chapters) == 0 {
		return Chapter{}, false
	}
	return b.Chapters[0], true
}

// ChaptersInOrder returns the chapters in creation order, the exact
// reverse of the stored sequence.
func (b *Book) ChaptersInOrder() []Chapter {
	out := make([]Chapter, 0, len(b.Chapters))
	for i := len(b.Chapters) - 1; i >= 0; i-- {
		out = append(out, b.Chapters[i])
	}
	return out
}
