// Package export renders finished books as downloadable PDF documents.
package export

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/go-pdf/fpdf"

	"lifescript/pkg/domain"
)

// ErrNoChapters indicates the book has nothing to export yet.
var ErrNoChapters = errors.New("book has no chapters")

const (
	pageMargin     = 15.0
	titleGap       = 20.0
	headingGap     = 10.0
	headingReserve = 30.0
	lineHeight     = 7.0
	chapterGap     = 10.0
)

var whitespaceRe = regexp.MustCompile(`\s`)

// Filename returns the download file name for a book title.
func Filename(title string) string {
	return whitespaceRe.ReplaceAllString(title, "_") + ".pdf"
}

// WritePDF renders the book's chapters in chronological order to w.
// The document is A4 portrait with the title centered on the first page
// and one numbered heading per chapter.
func WritePDF(w io.Writer, book *domain.Book) error {
	chapters := book.ChaptersInOrder()
	if len(chapters) == 0 {
		return ErrNoChapters
	}

	doc := fpdf.New("P", "mm", "A4", "")
	tr := doc.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := doc.GetPageSize()
	textWidth := pageW - pageMargin*2
	pageHeight := pageH - pageMargin*2

	doc.AddPage()
	y := pageMargin

	doc.SetFont("Times", "B", 24)
	title := tr(book.Title)
	doc.Text(pageW/2-doc.GetStringWidth(title)/2, y, title)
	y += titleGap

	for i, ch := range chapters {
		if y > pageHeight-headingReserve {
			doc.AddPage()
			y = pageMargin
		}

		doc.SetFont("Helvetica", "B", 14)
		doc.Text(pageMargin, y, tr(fmt.Sprintf("Chapter %d: %s", i+1, ch.Date)))
		y += headingGap

		doc.SetFont("Times", "", 12)
		for _, line := range doc.SplitText(tr(ch.StoryText), textWidth) {
			if y > pageHeight {
				doc.AddPage()
				y = pageMargin
			}
			doc.Text(pageMargin, y, line)
			y += lineHeight
		}
		y += chapterGap
	}

	return doc.Output(w)
}
