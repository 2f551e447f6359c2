package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lifescript/pkg/domain"
)

// ErrGenerationFailed indicates the model call failed or returned no usable text.
var ErrGenerationFailed = errors.New("failed to generate story")

const chapterDateLayout = "January 2, 2006"

// BuildPrompt renders the memoir prompt for a journal entry. When prev is
// non-nil the prompt asks the model to continue from the previous chapter,
// otherwise it asks for the opening chapter of a new book.
func BuildPrompt(prev *domain.Chapter, tone domain.Tone, entry string) string {
	if prev != nil {
		return fmt.Sprintf(`Your task is to continue a personal memoir by writing a new chapter.
- Tone: %s
- Writing style: Narrative-driven, clear, basic English.
- Grammar: Correct any grammatical errors from the new entry.
- Context: The previous chapter was based on the entry "%s" and resulted in the story: "%s". The new chapter must flow seamlessly from this.
- Output format: You MUST return ONLY the raw story text for the new chapter. Do not include any titles, introductory phrases, or markdown formatting.

New Journal Entry:
"%s"`, tone, prev.RawText, prev.StoryText, entry)
	}
	return fmt.Sprintf(`Your task is to transform the following journal entry into the first chapter of a book.
- Tone: %s
- Writing style: Narrative-driven, clear, basic English.
- Grammar: Correct any grammatical errors from the original entry.
- Output format: You MUST return ONLY the raw story text. Do not include any titles (like "Chapter One"), introductory phrases (like "Here is the chapter..."), or markdown formatting.

Journal Entry:
"%s"`, tone, entry)
}

// NarrativeClient turns raw journal entries into story chapters.
type NarrativeClient struct {
	generator TextGenerator
	now       func() time.Time
}

// NewNarrativeClient builds a client on top of any TextGenerator.
func NewNarrativeClient(generator TextGenerator) *NarrativeClient {
	return &NarrativeClient{generator: generator, now: time.Now}
}

// GenerateChapter produces the next chapter for book from a raw journal
// entry. The most recent chapter, if any, provides continuation context.
func (c *NarrativeClient) GenerateChapter(ctx context.Context, book *domain.Book, entry string, tone domain.Tone) (domain.Chapter, error) {
	var prev *domain.Chapter
	if last, ok := book.LatestChapter(); ok {
		prev = &last
	}
	prompt := BuildPrompt(prev, tone, entry)
	story, err := c.generator.GenerateText(ctx, "", prompt)
	if err != nil {
		return domain.Chapter{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(story) == "" {
		return domain.Chapter{}, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}
	return domain.Chapter{
		ID:        uuid.NewString(),
		RawText:   entry,
		StoryText: story,
		Tone:      tone,
		Date:      c.now().Format(chapterDateLayout),
	}, nil
}
