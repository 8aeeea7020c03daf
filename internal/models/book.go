package models

import "time"

type BookStatus string

const (
	BookStatusGenerating       BookStatus = "generating"
	BookStatusGeneratingStory  BookStatus = "generating_story"
	BookStatusGeneratingImages BookStatus = "generating_images"
	BookStatusPreviewReady     BookStatus = "preview_ready"
	BookStatusPaid             BookStatus = "paid"
	BookStatusComplete         BookStatus = "complete"
	BookStatusFailed           BookStatus = "failed"
)

// statusRank orders the happy path. failed sits outside it.
var statusRank = map[BookStatus]int{
	BookStatusGenerating:       0,
	BookStatusGeneratingStory:  1,
	BookStatusGeneratingImages: 2,
	BookStatusPreviewReady:     3,
	BookStatusPaid:             4,
	BookStatusComplete:         5,
}

func (s BookStatus) Valid() bool {
	if s == BookStatusFailed {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

func (s BookStatus) Terminal() bool {
	return s == BookStatusComplete || s == BookStatusFailed
}

// InProgress reports whether a generation run may currently own the book.
func (s BookStatus) InProgress() bool {
	switch s {
	case BookStatusGenerating, BookStatusGeneratingStory, BookStatusGeneratingImages, BookStatusPaid:
		return true
	}
	return false
}

// CanTransition enforces the lifecycle: forward by exactly one step along
// the happy path, or to failed from any non-terminal state.
func (s BookStatus) CanTransition(to BookStatus) bool {
	if s.Terminal() {
		return false
	}
	if to == BookStatusFailed {
		return s.Valid()
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	next, ok := statusRank[to]
	return ok && next == from+1
}

// StaleStatuses are the statuses the sweeper fails when a run stops
// making progress.
var StaleStatuses = []BookStatus{
	BookStatusGenerating,
	BookStatusGeneratingStory,
	BookStatusGeneratingImages,
}

type Book struct {
	ID                  string
	ChildID             string
	Theme               Theme
	Region              Region
	ImageQuality        ImageQuality
	IllustrationStyle   IllustrationStyle
	Status              BookStatus
	Title               *string
	CharacterAppearance *string
	PaymentSessionID    *string
	PaymentIntentID     *string
	CreatedAt           time.Time
	UpdatedAt           time.Time
	CompletedAt         *time.Time
}

// StoryLength is the fixed number of pages in every book.
const StoryLength = 8

type BookPage struct {
	ID          string
	BookID      string
	PageNumber  int
	Text        string
	ImagePrompt string
	ImageURL    *string
	IsPreview   bool
	CreatedAt   time.Time
}

func (p BookPage) Illustrated() bool {
	return p.ImageURL != nil && *p.ImageURL != ""
}

// GenerationMode selects which batch of pages an image run targets.
type GenerationMode string

const (
	ModePreview GenerationMode = "preview"
	ModeFull    GenerationMode = "full"
)

func (m GenerationMode) Valid() bool {
	return m == ModePreview || m == ModeFull
}

// Targets filters pages (already ordered by page number) down to the batch
// for the mode. The full batch also retries preview pages that never got
// an illustration.
func (m GenerationMode) Targets(pages []BookPage) []BookPage {
	out := make([]BookPage, 0, len(pages))
	for _, p := range pages {
		switch m {
		case ModePreview:
			if p.IsPreview {
				out = append(out, p)
			}
		case ModeFull:
			if !p.IsPreview || !p.Illustrated() {
				out = append(out, p)
			}
		}
	}
	return out
}
