package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/LAMpbrien/adventures-of/internal/ids"
	"github.com/LAMpbrien/adventures-of/internal/illustration"
	"github.com/LAMpbrien/adventures-of/internal/models"
	"github.com/LAMpbrien/adventures-of/internal/queue"
	"github.com/LAMpbrien/adventures-of/internal/story"
)

type GenerateInput struct {
	UserID  string
	ChildID string
	BookID  string
	// Theme and Region are optional; when set they must match the book.
	Theme  models.Theme
	Region models.Region
}

type GenerateResult struct {
	Status  models.BookStatus `json:"status"`
	Warning string            `json:"warning,omitempty"`
}

// Generate runs the combined flow synchronously: story, then the preview
// batch.
func (s *BookService) Generate(ctx context.Context, in GenerateInput) (GenerateResult, error) {
	if _, err := s.authorizeGenerate(ctx, in); err != nil {
		return GenerateResult{}, err
	}
	return s.RunCombined(ctx, in.BookID)
}

// GenerateAsync validates like Generate, then hands the run to the worker.
func (s *BookService) GenerateAsync(ctx context.Context, in GenerateInput) (GenerateResult, error) {
	book, err := s.authorizeGenerate(ctx, in)
	if err != nil {
		return GenerateResult{}, err
	}
	if book.Status != models.BookStatusGenerating {
		return GenerateResult{}, ErrInvalidState
	}
	if err := s.dispatcher.Submit(ctx, queue.Task{Type: queue.TaskGenerate, BookID: book.ID}); err != nil {
		return GenerateResult{}, fmt.Errorf("submit generation: %w", err)
	}
	return GenerateResult{Status: book.Status}, nil
}

// GenerateStory is the first call of the split flow. It returns the title.
func (s *BookService) GenerateStory(ctx context.Context, in GenerateInput) (string, error) {
	book, err := s.authorizeGenerate(ctx, in)
	if err != nil {
		return "", err
	}

	release, err := s.acquire(ctx, book.ID)
	if err != nil {
		return "", err
	}
	defer release()

	book, child, err := s.loadRun(ctx, book.ID)
	if err != nil {
		return "", err
	}
	if book.Status != models.BookStatusGenerating {
		return "", ErrInvalidState
	}
	return s.runStory(ctx, book, child)
}

// GenerateImages illustrates one batch of an existing story on behalf of
// the book's owner.
func (s *BookService) GenerateImages(ctx context.Context, userID, bookID string, mode models.GenerationMode) (GenerateResult, error) {
	if userID == "" {
		return GenerateResult{}, ErrUnauthenticated
	}
	if !mode.Valid() {
		return GenerateResult{}, invalid("mode must be preview or full")
	}
	if _, err := s.authorize(ctx, userID, bookID); err != nil {
		return GenerateResult{}, err
	}
	return s.RunImages(ctx, bookID, mode)
}

// RunCombined executes story plus preview batch for a book that is still
// in the generating status. Callers are trusted.
func (s *BookService) RunCombined(ctx context.Context, bookID string) (GenerateResult, error) {
	release, err := s.acquire(ctx, bookID)
	if err != nil {
		return GenerateResult{}, err
	}
	defer release()

	book, child, err := s.loadRun(ctx, bookID)
	if err != nil {
		return GenerateResult{}, err
	}
	if book.Status != models.BookStatusGenerating {
		return GenerateResult{}, ErrInvalidState
	}

	if _, err := s.runStory(ctx, book, child); err != nil {
		return GenerateResult{}, err
	}

	book, err = s.books.GetByID(ctx, bookID)
	if err != nil {
		return GenerateResult{}, translate(err)
	}
	return s.runImages(ctx, book, child, models.ModePreview)
}

// RunImages executes one illustration batch. Callers are trusted.
func (s *BookService) RunImages(ctx context.Context, bookID string, mode models.GenerationMode) (GenerateResult, error) {
	if !mode.Valid() {
		return GenerateResult{}, invalid("mode must be preview or full")
	}

	release, err := s.acquire(ctx, bookID)
	if err != nil {
		return GenerateResult{}, err
	}
	defer release()

	book, child, err := s.loadRun(ctx, bookID)
	if err != nil {
		return GenerateResult{}, err
	}
	return s.runImages(ctx, book, child, mode)
}

func (s *BookService) authorizeGenerate(ctx context.Context, in GenerateInput) (models.Book, error) {
	if in.UserID == "" {
		return models.Book{}, ErrUnauthenticated
	}
	if !ids.Valid(in.ChildID) {
		return models.Book{}, invalid("childId must be a uuid")
	}
	if !ids.Valid(in.BookID) {
		return models.Book{}, invalid("bookId must be a uuid")
	}
	if in.Theme != "" && !in.Theme.Valid() {
		return models.Book{}, invalid("unknown theme %q", in.Theme)
	}
	if in.Region != "" && !in.Region.Valid() {
		return models.Book{}, invalid("unknown region %q", in.Region)
	}

	child, err := s.children.GetByID(ctx, in.ChildID)
	if err != nil {
		return models.Book{}, translate(err)
	}
	if child.UserID != in.UserID {
		return models.Book{}, ErrForbidden
	}

	book, err := s.authorize(ctx, in.UserID, in.BookID)
	if err != nil {
		return models.Book{}, err
	}
	switch {
	case book.ChildID != child.ID:
		return models.Book{}, invalid("book does not belong to child")
	case in.Theme != "" && in.Theme != book.Theme:
		return models.Book{}, invalid("theme does not match the book")
	case in.Region != "" && in.Region != book.Region:
		return models.Book{}, invalid("region does not match the book")
	}
	return book, nil
}

// loadRun reads the book and its child under the run lease.
func (s *BookService) loadRun(ctx context.Context, bookID string) (models.Book, models.Child, error) {
	book, err := s.books.GetByID(ctx, bookID)
	if err != nil {
		return models.Book{}, models.Child{}, translate(err)
	}
	child, err := s.children.GetByID(ctx, book.ChildID)
	if err != nil {
		return models.Book{}, models.Child{}, translate(err)
	}
	return book, child, nil
}

// runStory moves a generating book through generating_story and stores
// the story, leaving it in generating_images. A provider failure fails the
// book before any page exists.
func (s *BookService) runStory(ctx context.Context, book models.Book, child models.Child) (string, error) {
	logger := s.log.With().Str("book_id", book.ID).Logger()

	if err := s.books.UpdateStatus(ctx, book.ID, models.BookStatusGeneratingStory, models.BookStatusGenerating); err != nil {
		return "", translate(err)
	}

	st, err := s.stories.Generate(ctx, child, book.Theme, book.Region)
	if err != nil {
		logger.Error().Err(err).Msg("story generation failed")
		s.fail(ctx, book.ID, models.BookStatusGeneratingStory)
		return "", &UpstreamError{Stage: "story", Err: err}
	}

	pages := s.buildPages(book.ID, st)
	if err := s.books.SaveStory(ctx, book.ID, st.Title, st.CharacterAppearance, pages,
		models.BookStatusGeneratingImages, models.BookStatusGeneratingStory); err != nil {
		return "", fmt.Errorf("save story: %w", translate(err))
	}

	logger.Info().Str("title", st.Title).Int("pages", len(pages)).Msg("story saved")
	return st.Title, nil
}

func (s *BookService) buildPages(bookID string, st *story.Story) []models.BookPage {
	pages := make([]models.BookPage, 0, len(st.Pages))
	for _, p := range st.Pages {
		pages = append(pages, models.BookPage{
			ID:          ids.New(),
			BookID:      bookID,
			PageNumber:  p.PageNumber,
			Text:        p.Text,
			ImagePrompt: p.ImageDescription,
			IsPreview:   p.PageNumber <= s.opts.PreviewPages,
		})
	}
	return pages
}

// batchStart lists the statuses an image run of each mode may start from.
var batchStart = map[models.GenerationMode][]models.BookStatus{
	models.ModePreview: {models.BookStatusGeneratingImages, models.BookStatusPreviewReady},
	models.ModeFull:    {models.BookStatusPaid, models.BookStatusComplete},
}

// runImages illustrates the batch for mode strictly in page order. Page
// failures are collected; the batch only fails when every page failed.
func (s *BookService) runImages(ctx context.Context, book models.Book, child models.Child, mode models.GenerationMode) (GenerateResult, error) {
	from := book.Status
	if !statusIn(from, batchStart[mode]) {
		return GenerateResult{}, ErrInvalidState
	}

	logger := s.log.With().Str("book_id", book.ID).Str("mode", string(mode)).Logger()

	pages, err := s.pages.ListByBook(ctx, book.ID)
	if err != nil {
		return GenerateResult{}, fmt.Errorf("list pages: %w", err)
	}
	targets := mode.Targets(pages)

	chain := illustration.NewChain(child.PrimaryPhotoURL())
	appearance := deref(book.CharacterAppearance)

	var failed []int
	for _, page := range targets {
		if err := s.illustratePage(ctx, book, child, chain, appearance, page); err != nil {
			logger.Warn().Err(err).Int("page", page.PageNumber).Msg("page illustration failed")
			failed = append(failed, page.PageNumber)
			continue
		}
		logger.Debug().Int("page", page.PageNumber).Msg("page illustrated")
	}

	if len(targets) > 0 && len(failed) == len(targets) {
		if !from.InProgress() {
			// A re-run over an already successful batch keeps what it had.
			logger.Warn().Msg("every page of the re-run failed")
			return GenerateResult{Status: from, Warning: failureWarning(failed)}, nil
		}
		logger.Error().Int("pages", len(targets)).Msg("every page of the batch failed")
		s.fail(ctx, book.ID, from)
		return GenerateResult{Status: models.BookStatusFailed}, &UpstreamError{
			Stage: "illustration",
			Err:   fmt.Errorf("all %d pages failed", len(targets)),
		}
	}

	status := from
	switch from {
	case models.BookStatusGeneratingImages:
		if err := s.books.UpdateStatus(ctx, book.ID, models.BookStatusPreviewReady, from); err != nil {
			return GenerateResult{}, translate(err)
		}
		status = models.BookStatusPreviewReady
	case models.BookStatusPaid:
		if err := s.books.Complete(ctx, book.ID); err != nil {
			return GenerateResult{}, translate(err)
		}
		status = models.BookStatusComplete
	}

	logger.Info().Str("status", string(status)).Int("pages", len(targets)).Int("failed", len(failed)).Msg("illustration batch finished")
	return GenerateResult{Status: status, Warning: failureWarning(failed)}, nil
}

// illustratePage generates, persists and records one page. The chain
// anchor is taken from the generated image even when persisting it fails.
func (s *BookService) illustratePage(ctx context.Context, book models.Book, child models.Child, chain *illustration.Chain, appearance string, page models.BookPage) error {
	ref, chained := chain.Reference()
	generated, err := s.illustrator.Generate(ctx, illustration.Request{
		ReferenceImageURL:   ref,
		ChildName:           child.Name,
		ChildAge:            child.Age,
		SceneDescription:    page.ImagePrompt,
		Quality:             book.ImageQuality,
		Style:               book.IllustrationStyle,
		CharacterAppearance: appearance,
		Chained:             chained,
	})
	if err != nil {
		return err
	}
	chain.Record(generated)

	stored, err := s.assets.Persist(ctx, generated, book.ID, page.PageNumber)
	if err != nil {
		return err
	}
	if err := s.pages.SetImageURL(ctx, book.ID, page.PageNumber, stored); err != nil {
		return fmt.Errorf("record image url: %w", err)
	}
	return nil
}

// fail moves the book to failed from the given status. Errors are logged;
// the stale sweep catches anything left behind.
func (s *BookService) fail(ctx context.Context, bookID string, from models.BookStatus) {
	if err := s.books.UpdateStatus(context.WithoutCancel(ctx), bookID, models.BookStatusFailed, from); err != nil {
		s.log.Error().Err(err).Str("book_id", bookID).Msg("mark book failed")
	}
}

// SweepStale fails books stuck in a generating status for longer than the
// configured window. Paid books idle for as long get their full batch
// queued again instead, since a lost task would otherwise leave them paid
// forever.
func (s *BookService) SweepStale(ctx context.Context) ([]string, error) {
	cutoff := s.now().Add(-s.opts.StaleAfter)
	failed, err := s.books.FailStale(ctx, models.StaleStatuses, cutoff)
	if err != nil {
		return nil, fmt.Errorf("sweep stale books: %w", err)
	}
	for _, id := range failed {
		s.log.Warn().Str("book_id", id).Msg("stale generation run failed")
	}

	paid, err := s.books.ListIdle(ctx, models.BookStatusPaid, cutoff)
	if err != nil {
		return failed, fmt.Errorf("list idle paid books: %w", err)
	}
	var errs []error
	for _, id := range paid {
		if err := s.submitFull(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("book %s: %w", id, err))
			continue
		}
		s.log.Warn().Str("book_id", id).Msg("idle paid book, full batch queued again")
	}
	return failed, errors.Join(errs...)
}

func failureWarning(pages []int) string {
	if len(pages) == 0 {
		return ""
	}
	nums := make([]string, len(pages))
	for i, p := range pages {
		nums[i] = strconv.Itoa(p)
	}
	return fmt.Sprintf("Some illustrations failed to generate (pages %s).", strings.Join(nums, ", "))
}

func statusIn(s models.BookStatus, set []models.BookStatus) bool {
	for _, c := range set {
		if c == s {
			return true
		}
	}
	return false
}
