package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"

	"lifescript/pkg/domain"
)

func extractText(t *testing.T, data []byte) string {
	t.Helper()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
	}
	return sb.String()
}

func TestWritePDF(t *testing.T) {
	book := domain.NewBook("My Life Story")
	book.AppendChapter(domain.Chapter{
		ID:        "c1",
		StoryText: "The summer began quietly.",
		Date:      "June 1, 2025",
	})
	book.AppendChapter(domain.Chapter{
		ID:        "c2",
		StoryText: "Autumn brought new roads.",
		Date:      "September 12, 2025",
	})

	var buf bytes.Buffer
	if err := WritePDF(&buf, &book); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}

	text := extractText(t, buf.Bytes())
	if !strings.Contains(text, "My Life Story") {
		t.Fatalf("missing title in pdf text: %q", text)
	}
	// Chapters render oldest first.
	if !strings.Contains(text, "Chapter 1: June 1, 2025") {
		t.Fatalf("missing first chapter heading: %q", text)
	}
	if !strings.Contains(text, "Chapter 2: September 12, 2025") {
		t.Fatalf("missing second chapter heading: %q", text)
	}
	if !strings.Contains(text, "The summer began quietly.") {
		t.Fatalf("missing story text: %q", text)
	}
}

func TestWritePDFPaginatesLongBooks(t *testing.T) {
	book := domain.NewBook("Long Haul")
	long := strings.Repeat("A sentence that keeps the story moving forward. ", 60)
	for i := 0; i < 4; i++ {
		book.AppendChapter(domain.Chapter{StoryText: long, Date: "May 5, 2025"})
	}

	var buf bytes.Buffer
	if err := WritePDF(&buf, &book); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if reader.NumPage() < 2 {
		t.Fatalf("expected multiple pages, got %d", reader.NumPage())
	}
}

func TestWritePDFEmptyBook(t *testing.T) {
	book := domain.NewBook("Empty")
	var buf bytes.Buffer
	if err := WritePDF(&buf, &book); !errors.Is(err, ErrNoChapters) {
		t.Fatalf("expected ErrNoChapters, got %v", err)
	}
}

func TestFilename(t *testing.T) {
	if got := Filename("My Life Story"); got != "My_Life_Story.pdf" {
		t.Fatalf("filename = %q", got)
	}
	if got := Filename("One\tTab Two"); got != "One_Tab_Two.pdf" {
		t.Fatalf("filename = %q", got)
	}
	if got := Filename("Solo"); got != "Solo.pdf" {
		t.Fatalf("filename = %q", got)
	}
}
