package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/LAMpbrien/adventures-of/internal/assets"
	"github.com/LAMpbrien/adventures-of/internal/ebook"
	"github.com/LAMpbrien/adventures-of/internal/ids"
	"github.com/LAMpbrien/adventures-of/internal/illustration"
	"github.com/LAMpbrien/adventures-of/internal/models"
	"github.com/LAMpbrien/adventures-of/internal/queue"
	"github.com/LAMpbrien/adventures-of/internal/story"
)

type ChildStore interface {
	Create(ctx context.Context, child models.Child) error
	GetByID(ctx context.Context, id string) (models.Child, error)
}

type BookStore interface {
	Create(ctx context.Context, book models.Book) error
	GetByID(ctx context.Context, id string) (models.Book, error)
	GetOwned(ctx context.Context, id string) (models.Book, string, error)
	Delete(ctx context.Context, id string) error
	UpdateStatus(ctx context.Context, id string, to models.BookStatus, from ...models.BookStatus) error
	SaveStory(ctx context.Context, id, title, appearance string, pages []models.BookPage, to, from models.BookStatus) error
	MarkPaid(ctx context.Context, id string, sessionID, intentID *string) error
	Complete(ctx context.Context, id string) error
	FailStale(ctx context.Context, statuses []models.BookStatus, cutoff time.Time) ([]string, error)
	ListIdle(ctx context.Context, status models.BookStatus, cutoff time.Time) ([]string, error)
}

type PageStore interface {
	ListByBook(ctx context.Context, bookID string) ([]models.BookPage, error)
	SetImageURL(ctx context.Context, bookID string, pageNumber int, url string) error
}

type StoryWriter interface {
	Generate(ctx context.Context, child models.Child, theme models.Theme, region models.Region) (*story.Story, error)
}

type Illustrator interface {
	Generate(ctx context.Context, req illustration.Request) (string, error)
}

type AssetPersister interface {
	Persist(ctx context.Context, sourceURL, bookID string, page int) (string, error)
}

type BlobRemover interface {
	RemovePrefix(ctx context.Context, bucket, prefix string) error
}

// RunLease grants exclusive ownership of a book for one generation run.
type RunLease interface {
	Acquire(ctx context.Context, bookID string) (func(context.Context) error, error)
}

// Dispatcher hands a detached task to the worker.
type Dispatcher interface {
	Submit(ctx context.Context, task queue.Task) error
}

type BookRenderer interface {
	Render(ctx context.Context, book ebook.Book) ([]byte, error)
}

type Deps struct {
	Children    ChildStore
	Books       BookStore
	Pages       PageStore
	Stories     StoryWriter
	Illustrator Illustrator
	Assets      AssetPersister
	Blobs       BlobRemover
	Lease       RunLease
	Dispatcher  Dispatcher
	Renderer    BookRenderer
}

type Options struct {
	// PreviewPages is how many leading pages belong to the preview batch.
	PreviewPages        int
	PaymentBypass       bool
	StaleAfter          time.Duration
	IllustrationsBucket string
}

// BookService drives books through their lifecycle: creation, story,
// illustration batches, payment and export.
type BookService struct {
	children    ChildStore
	books       BookStore
	pages       PageStore
	stories     StoryWriter
	illustrator Illustrator
	assets      AssetPersister
	blobs       BlobRemover
	lease       RunLease
	dispatcher  Dispatcher
	renderer    BookRenderer
	opts        Options
	log         zerolog.Logger
	now         func() time.Time
}

func NewBookService(deps Deps, opts Options, log zerolog.Logger) *BookService {
	return &BookService{
		children:    deps.Children,
		books:       deps.Books,
		pages:       deps.Pages,
		stories:     deps.Stories,
		illustrator: deps.Illustrator,
		assets:      deps.Assets,
		blobs:       deps.Blobs,
		lease:       deps.Lease,
		dispatcher:  deps.Dispatcher,
		renderer:    deps.Renderer,
		opts:        opts,
		log:         log,
		now:         time.Now,
	}
}

type ChildDetails struct {
	Name           string              `json:"name"`
	Age            int                 `json:"age"`
	Interests      []string            `json:"interests"`
	FavoriteThings *string             `json:"favoriteThings"`
	FearsToAvoid   *string             `json:"fearsToAvoid"`
	ReadingLevel   models.ReadingLevel `json:"readingLevel"`
	PhotoURLs      []string            `json:"photoUrls"`
}

type CreateBookInput struct {
	UserID            string
	ChildID           string
	ChildDetails      *ChildDetails
	Theme             models.Theme
	Region            models.Region
	ImageQuality      models.ImageQuality
	IllustrationStyle models.IllustrationStyle
}

type CreateBookResult struct {
	BookID  string `json:"bookId"`
	ChildID string `json:"childId"`
}

// CreateBook resolves or creates the child profile and records a new book
// in the generating status.
func (s *BookService) CreateBook(ctx context.Context, in CreateBookInput) (CreateBookResult, error) {
	if in.UserID == "" {
		return CreateBookResult{}, ErrUnauthenticated
	}
	if err := normalizeCreate(&in); err != nil {
		return CreateBookResult{}, err
	}

	var childID string
	if in.ChildID != "" {
		child, err := s.children.GetByID(ctx, in.ChildID)
		if err != nil {
			return CreateBookResult{}, translate(err)
		}
		if child.UserID != in.UserID {
			return CreateBookResult{}, ErrChildNotFound
		}
		childID = child.ID
	} else {
		d := in.ChildDetails
		child := models.Child{
			ID:             ids.New(),
			UserID:         in.UserID,
			Name:           strings.TrimSpace(d.Name),
			Age:            d.Age,
			Interests:      d.Interests,
			FavoriteThings: d.FavoriteThings,
			FearsToAvoid:   d.FearsToAvoid,
			ReadingLevel:   d.ReadingLevel,
			PhotoURLs:      d.PhotoURLs,
		}
		if err := s.children.Create(ctx, child); err != nil {
			return CreateBookResult{}, fmt.Errorf("create child: %w", err)
		}
		childID = child.ID
	}

	book := models.Book{
		ID:                ids.New(),
		ChildID:           childID,
		Theme:             in.Theme,
		Region:            in.Region,
		ImageQuality:      in.ImageQuality,
		IllustrationStyle: in.IllustrationStyle,
		Status:            models.BookStatusGenerating,
	}
	if err := s.books.Create(ctx, book); err != nil {
		return CreateBookResult{}, fmt.Errorf("create book: %w", err)
	}

	s.log.Info().Str("book_id", book.ID).Str("child_id", childID).Str("theme", string(book.Theme)).Msg("book created")
	return CreateBookResult{BookID: book.ID, ChildID: childID}, nil
}

func normalizeCreate(in *CreateBookInput) error {
	if (in.ChildID == "") == (in.ChildDetails == nil) {
		return invalid("exactly one of childId or childDetails is required")
	}
	if in.ChildID != "" && !ids.Valid(in.ChildID) {
		return invalid("childId must be a uuid")
	}
	if in.ChildDetails != nil {
		if err := validateChild(in.ChildDetails); err != nil {
			return err
		}
	}

	if in.Region == "" {
		in.Region = models.RegionGlobal
	}
	if in.ImageQuality == "" {
		in.ImageQuality = models.ImageQualityStandard
	}
	if in.IllustrationStyle == "" {
		in.IllustrationStyle = models.StyleWatercolor
	}

	switch {
	case !in.Region.Valid():
		return invalid("unknown region %q", in.Region)
	case !in.Theme.Valid():
		return invalid("unknown theme %q", in.Theme)
	case !in.Theme.AvailableIn(in.Region):
		return invalid("theme %q is not available in region %q", in.Theme, in.Region)
	case !in.ImageQuality.Valid():
		return invalid("unknown image quality %q", in.ImageQuality)
	case !in.IllustrationStyle.Valid():
		return invalid("unknown illustration style %q", in.IllustrationStyle)
	}
	return nil
}

func validateChild(d *ChildDetails) error {
	if n := utf8.RuneCountInString(strings.TrimSpace(d.Name)); n < 1 || n > 100 {
		return invalid("name must be 1-100 characters")
	}
	if d.Age < 1 || d.Age > 18 {
		return invalid("age must be between 1 and 18")
	}
	if len(d.Interests) < 1 || len(d.Interests) > 20 {
		return invalid("between 1 and 20 interests are required")
	}
	for _, interest := range d.Interests {
		if utf8.RuneCountInString(interest) > 100 {
			return invalid("interests must be at most 100 characters")
		}
	}
	if d.FavoriteThings != nil && utf8.RuneCountInString(*d.FavoriteThings) > 500 {
		return invalid("favoriteThings must be at most 500 characters")
	}
	if d.FearsToAvoid != nil && utf8.RuneCountInString(*d.FearsToAvoid) > 500 {
		return invalid("fearsToAvoid must be at most 500 characters")
	}
	if !d.ReadingLevel.Valid() {
		return invalid("unknown reading level %q", d.ReadingLevel)
	}
	if len(d.PhotoURLs) == 0 {
		return invalid("at least one photo url is required")
	}
	for _, raw := range d.PhotoURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalid("photo url %q is not an absolute http(s) url", raw)
		}
	}
	return nil
}

// authorize loads a book on behalf of userID.
func (s *BookService) authorize(ctx context.Context, userID, bookID string) (models.Book, error) {
	if userID == "" {
		return models.Book{}, ErrUnauthenticated
	}
	if !ids.Valid(bookID) {
		return models.Book{}, invalid("bookId must be a uuid")
	}
	book, owner, err := s.books.GetOwned(ctx, bookID)
	if err != nil {
		return models.Book{}, translate(err)
	}
	if owner != userID {
		return models.Book{}, ErrForbidden
	}
	return book, nil
}

func (s *BookService) Status(ctx context.Context, userID, bookID string) (models.BookStatus, error) {
	book, err := s.authorize(ctx, userID, bookID)
	if err != nil {
		return "", err
	}
	return book.Status, nil
}

type BookView struct {
	Book      models.Book
	ChildName string
	Pages     []models.BookPage
}

func (s *BookService) GetBook(ctx context.Context, userID, bookID string) (BookView, error) {
	book, err := s.authorize(ctx, userID, bookID)
	if err != nil {
		return BookView{}, err
	}
	child, err := s.children.GetByID(ctx, book.ChildID)
	if err != nil {
		return BookView{}, translate(err)
	}
	pages, err := s.pages.ListByBook(ctx, book.ID)
	if err != nil {
		return BookView{}, fmt.Errorf("list pages: %w", err)
	}
	return BookView{Book: book, ChildName: child.Name, Pages: pages}, nil
}

// DeleteBook removes the book's illustrations and then the book itself.
// It refuses while a run holds the book.
func (s *BookService) DeleteBook(ctx context.Context, userID, bookID string) error {
	book, err := s.authorize(ctx, userID, bookID)
	if err != nil {
		return err
	}
	release, err := s.acquire(ctx, book.ID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.blobs.RemovePrefix(ctx, s.opts.IllustrationsBucket, assets.Prefix(book.ID)); err != nil {
		return fmt.Errorf("remove illustrations: %w", err)
	}
	if err := s.books.Delete(ctx, book.ID); err != nil {
		return translate(err)
	}

	s.log.Info().Str("book_id", book.ID).Msg("book deleted")
	return nil
}

type Download struct {
	Filename string
	Data     []byte
}

// Download renders a complete book as an EPUB.
func (s *BookService) Download(ctx context.Context, userID, bookID string) (Download, error) {
	book, err := s.authorize(ctx, userID, bookID)
	if err != nil {
		return Download{}, err
	}
	if book.Status != models.BookStatusComplete {
		return Download{}, ErrInvalidState
	}
	child, err := s.children.GetByID(ctx, book.ChildID)
	if err != nil {
		return Download{}, translate(err)
	}
	pages, err := s.pages.ListByBook(ctx, book.ID)
	if err != nil {
		return Download{}, fmt.Errorf("list pages: %w", err)
	}

	doc := ebook.Book{
		Title:    deref(book.Title),
		Author:   child.Name,
		Language: ebook.Language(book.Region),
		Pages:    make([]ebook.Page, 0, len(pages)),
	}
	for _, p := range pages {
		doc.Pages = append(doc.Pages, ebook.Page{Number: p.PageNumber, Text: p.Text, ImageURL: deref(p.ImageURL)})
	}

	data, err := s.renderer.Render(ctx, doc)
	if err != nil {
		return Download{}, fmt.Errorf("render book: %w", err)
	}
	return Download{Filename: book.ID + ".epub", Data: data}, nil
}

// acquire takes the run lease for bookID. The returned release never
// fails the caller; a lease that cannot be released expires on its own.
func (s *BookService) acquire(ctx context.Context, bookID string) (func(), error) {
	release, err := s.lease.Acquire(ctx, bookID)
	if err != nil {
		return nil, translate(err)
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn().Err(err).Str("book_id", bookID).Msg("release run lease")
		}
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
