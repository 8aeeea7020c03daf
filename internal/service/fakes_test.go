package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/LAMpbrien/adventures-of/internal/cache"
	"github.com/LAMpbrien/adventures-of/internal/ebook"
	"github.com/LAMpbrien/adventures-of/internal/illustration"
	"github.com/LAMpbrien/adventures-of/internal/models"
	"github.com/LAMpbrien/adventures-of/internal/queue"
	"github.com/LAMpbrien/adventures-of/internal/repository"
	"github.com/LAMpbrien/adventures-of/internal/story"
)

// memDB mimics the conditional updates of the postgres repositories.
type memDB struct {
	mu       sync.Mutex
	now      time.Time
	children map[string]models.Child
	books    map[string]models.Book
	pages    map[string][]models.BookPage
	history  map[string][]models.BookStatus
}

func newMemDB() *memDB {
	return &memDB{
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		children: map[string]models.Child{},
		books:    map[string]models.Book{},
		pages:    map[string][]models.BookPage{},
		history:  map[string][]models.BookStatus{},
	}
}

func (db *memDB) setStatus(book *models.Book, to models.BookStatus) {
	book.Status = to
	book.UpdatedAt = db.now
	db.history[book.ID] = append(db.history[book.ID], to)
}

func (db *memDB) book(id string) models.Book {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.books[id]
}

func (db *memDB) pageList(id string) []models.BookPage {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]models.BookPage(nil), db.pages[id]...)
}

type fakeChildren struct{ db *memDB }

func (f fakeChildren) Create(_ context.Context, child models.Child) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.children[child.ID] = child
	return nil
}

func (f fakeChildren) GetByID(_ context.Context, id string) (models.Child, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	child, ok := f.db.children[id]
	if !ok {
		return models.Child{}, repository.ErrChildNotFound
	}
	return child, nil
}

type fakeBooks struct{ db *memDB }

func (f fakeBooks) Create(_ context.Context, book models.Book) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	book.CreatedAt = f.db.now
	book.UpdatedAt = f.db.now
	f.db.books[book.ID] = book
	return nil
}

func (f fakeBooks) GetByID(_ context.Context, id string) (models.Book, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	book, ok := f.db.books[id]
	if !ok {
		return models.Book{}, repository.ErrBookNotFound
	}
	return book, nil
}

func (f fakeBooks) GetOwned(ctx context.Context, id string) (models.Book, string, error) {
	book, err := f.GetByID(ctx, id)
	if err != nil {
		return models.Book{}, "", err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return book, f.db.children[book.ChildID].UserID, nil
}

func (f fakeBooks) Delete(_ context.Context, id string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.books[id]; !ok {
		return repository.ErrBookNotFound
	}
	delete(f.db.books, id)
	delete(f.db.pages, id)
	return nil
}

func (f fakeBooks) transition(id string, from []models.BookStatus, apply func(*models.Book)) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	book, ok := f.db.books[id]
	if !ok {
		return repository.ErrBookNotFound
	}
	if !statusIn(book.Status, from) {
		return repository.ErrStatusConflict
	}
	apply(&book)
	f.db.books[id] = book
	return nil
}

func (f fakeBooks) UpdateStatus(_ context.Context, id string, to models.BookStatus, from ...models.BookStatus) error {
	return f.transition(id, from, func(b *models.Book) { f.db.setStatus(b, to) })
}

func (f fakeBooks) SaveStory(_ context.Context, id, title, appearance string, pages []models.BookPage, to, from models.BookStatus) error {
	err := f.transition(id, []models.BookStatus{from}, func(b *models.Book) {
		b.Title = &title
		if b.CharacterAppearance == nil {
			b.CharacterAppearance = &appearance
		}
		f.db.setStatus(b, to)
	})
	if err != nil {
		return err
	}
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.pages[id] = append(f.db.pages[id], pages...)
	return nil
}

func (f fakeBooks) MarkPaid(_ context.Context, id string, sessionID, intentID *string) error {
	return f.transition(id, []models.BookStatus{models.BookStatusPreviewReady}, func(b *models.Book) {
		if sessionID != nil {
			b.PaymentSessionID = sessionID
		}
		if intentID != nil {
			b.PaymentIntentID = intentID
		}
		f.db.setStatus(b, models.BookStatusPaid)
	})
}

func (f fakeBooks) Complete(_ context.Context, id string) error {
	return f.transition(id, []models.BookStatus{models.BookStatusPaid}, func(b *models.Book) {
		at := f.db.now
		b.CompletedAt = &at
		f.db.setStatus(b, models.BookStatusComplete)
	})
}

func (f fakeBooks) FailStale(_ context.Context, statuses []models.BookStatus, cutoff time.Time) ([]string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []string
	for id, book := range f.db.books {
		if statusIn(book.Status, statuses) && book.UpdatedAt.Before(cutoff) {
			f.db.setStatus(&book, models.BookStatusFailed)
			f.db.books[id] = book
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f fakeBooks) ListIdle(_ context.Context, status models.BookStatus, cutoff time.Time) ([]string, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	var out []string
	for id, book := range f.db.books {
		if book.Status == status && book.UpdatedAt.Before(cutoff) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

type fakePages struct{ db *memDB }

func (f fakePages) ListByBook(_ context.Context, bookID string) ([]models.BookPage, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	pages := append([]models.BookPage(nil), f.db.pages[bookID]...)
	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}

func (f fakePages) SetImageURL(_ context.Context, bookID string, pageNumber int, url string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for i, p := range f.db.pages[bookID] {
		if p.PageNumber == pageNumber {
			u := url
			f.db.pages[bookID][i].ImageURL = &u
			return nil
		}
	}
	return repository.ErrPageNotFound
}

type fakeStories struct {
	story *story.Story
	err   error
	calls int
}

func (f *fakeStories) Generate(context.Context, models.Child, models.Theme, models.Region) (*story.Story, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.story, nil
}

func eightPageStory() *story.Story {
	st := &story.Story{Title: "Mira and the Lost Egg", CharacterAppearance: "curly red hair, green raincoat"}
	for i := 1; i <= models.StoryLength; i++ {
		st.Pages = append(st.Pages, story.Page{
			PageNumber:       i,
			Text:             fmt.Sprintf("text %d", i),
			ImageDescription: fmt.Sprintf("scene %d", i),
		})
	}
	return st
}

// fakeIllustrator fails the scenes listed in failScenes and otherwise
// returns a fresh url per call.
type fakeIllustrator struct {
	failScenes map[string]bool
	requests   []illustration.Request
	outputs    []string
}

func (f *fakeIllustrator) Generate(_ context.Context, req illustration.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.failScenes[req.SceneDescription] {
		f.outputs = append(f.outputs, "")
		return "", &illustration.ServiceError{Err: errors.New("provider down")}
	}
	out := fmt.Sprintf("https://gen.example/render-%d.png", len(f.requests))
	f.outputs = append(f.outputs, out)
	return out, nil
}

type fakePersister struct {
	failPages map[int]bool
}

func (f *fakePersister) Persist(_ context.Context, _ string, bookID string, page int) (string, error) {
	if f.failPages[page] {
		return "", errors.New("store down")
	}
	return fmt.Sprintf("https://cdn.example/illustrations/%s/page-%d.png", bookID, page), nil
}

type fakeBlobs struct {
	removed []string
}

func (f *fakeBlobs) RemovePrefix(_ context.Context, bucket, prefix string) error {
	f.removed = append(f.removed, bucket+"/"+prefix)
	return nil
}

type fakeLease struct {
	held     map[string]bool
	released int
}

func (f *fakeLease) Acquire(_ context.Context, bookID string) (func(context.Context) error, error) {
	if f.held[bookID] {
		return nil, cache.ErrLeaseHeld
	}
	f.held[bookID] = true
	return func(context.Context) error {
		delete(f.held, bookID)
		f.released++
		return nil
	}, nil
}

// fakeDispatcher fails the next failures submits, then queues.
type fakeDispatcher struct {
	tasks    []queue.Task
	failures int
}

func (f *fakeDispatcher) Submit(_ context.Context, task queue.Task) error {
	if f.failures > 0 {
		f.failures--
		return errors.New("redis down")
	}
	f.tasks = append(f.tasks, task)
	return nil
}

type fakeRenderer struct {
	got ebook.Book
}

func (f *fakeRenderer) Render(_ context.Context, book ebook.Book) ([]byte, error) {
	f.got = book
	return []byte("PK"), nil
}
