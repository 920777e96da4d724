package library

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sadopc/litera/internal/store"
)

// DayLayout is the format of a read-day.
const DayLayout = "2006-01-02"

var (
	ErrNotFound        = store.ErrNotFound
	ErrValidation      = errors.New("invalid book")
	ErrAlreadyMarked   = errors.New("already marked as read today")
	ErrMalformedImport = errors.New("malformed import")
	ErrEmptyLibrary    = errors.New("no books to export")
)

// Repository is the document store holding the collection. *store.Store
// implements it.
type Repository interface {
	ListBooks(typ string) ([]store.Book, error)
	GetBook(id int64) (*store.Book, error)
	CountBooks() (int, error)
	AddBook(b store.Book) (*store.Book, error)
	PutBook(b store.Book) error
	AddReadDay(id int64, day string) (bool, error)
	DeleteBook(id int64) error
	ReplaceBooks(books []store.Book) error
}

// Fields are the user-editable parts of a book.
type Fields struct {
	Title         string
	Author        string
	Type          string
	ISBN          string
	PublishedYear int
	Rating        float64
	CurrentPage   int
	Notes         string
	CoverImageURL string
}

// FieldsOf returns the editable fields of b, for pre-filling an edit form.
func FieldsOf(b store.Book) Fields {
	return Fields{
		Title:         b.Title,
		Author:        b.Author,
		Type:          b.Type,
		ISBN:          b.ISBN,
		PublishedYear: b.PublishedYear,
		Rating:        b.Rating,
		CurrentPage:   b.CurrentPage,
		Notes:         b.Notes,
		CoverImageURL: b.CoverImageURL,
	}
}

// Validate trims f and checks it. An empty type defaults to offline.
func (f *Fields) Validate() error {
	f.Title = strings.TrimSpace(f.Title)
	f.Author = strings.TrimSpace(f.Author)
	f.ISBN = strings.TrimSpace(f.ISBN)
	f.Notes = strings.TrimSpace(f.Notes)
	f.CoverImageURL = strings.TrimSpace(f.CoverImageURL)
	if f.Type == "" {
		f.Type = store.TypeOffline
	}

	switch {
	case f.Title == "":
		return fmt.Errorf("%w: title is required", ErrValidation)
	case f.Type != store.TypeOnline && f.Type != store.TypeOffline:
		return fmt.Errorf("%w: type must be online or offline, got %q", ErrValidation, f.Type)
	case math.IsNaN(f.Rating) || f.Rating < 0 || f.Rating > 5:
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrValidation)
	case f.PublishedYear < 0:
		return fmt.Errorf("%w: published year cannot be negative", ErrValidation)
	case f.CurrentPage < 0:
		return fmt.Errorf("%w: current page cannot be negative", ErrValidation)
	}
	return nil
}

func (f Fields) apply(b *store.Book) {
	b.Title = f.Title
	b.Author = f.Author
	b.Type = f.Type
	b.ISBN = f.ISBN
	b.PublishedYear = f.PublishedYear
	b.Rating = f.Rating
	b.CurrentPage = f.CurrentPage
	b.Notes = f.Notes
	b.CoverImageURL = f.CoverImageURL
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service runs the library operations against a Repository.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// View loads the collection and runs it through Query. Type filters are
// pushed down to the store.
func (s *Service) View(p Params) (Result, error) {
	var typ string
	if p.Filter == FilterOnline || p.Filter == FilterOffline {
		typ = string(p.Filter)
	}
	books, err := s.repo.ListBooks(typ)
	if err != nil {
		return Result{}, fmt.Errorf("load books: %w", err)
	}
	return Query(books, p), nil
}

func (s *Service) Get(id int64) (*store.Book, error) {
	return s.repo.GetBook(id)
}

func (s *Service) Count() (int, error) {
	return s.repo.CountBooks()
}

// Add stores a new book with no read-days.
func (s *Service) Add(f Fields) (*store.Book, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var b store.Book
	f.apply(&b)
	b.ReadDays = []string{}

	added, err := s.repo.AddBook(b)
	if err != nil {
		return nil, err
	}
	s.logger.Info("book added", zap.Int64("id", added.ID), zap.String("title", added.Title))
	return added, nil
}

// Edit replaces every editable field of book id. Read-days are carried
// over from the stored record.
func (s *Service) Edit(id int64, f Fields) (*store.Book, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	existing, err := s.repo.GetBook(id)
	if err != nil {
		return nil, err
	}
	f.apply(existing)
	if err := s.repo.PutBook(*existing); err != nil {
		return nil, err
	}
	s.logger.Info("book updated", zap.Int64("id", id))
	return existing, nil
}

// MarkRead records today as a read-day for book id. It returns
// ErrAlreadyMarked when today is already recorded.
func (s *Service) MarkRead(id int64, today time.Time) error {
	day := today.Format(DayLayout)
	added, err := s.repo.AddReadDay(id, day)
	if err != nil {
		return err
	}
	if !added {
		return fmt.Errorf("book %d on %s: %w", id, day, ErrAlreadyMarked)
	}
	s.logger.Info("book marked read", zap.Int64("id", id), zap.String("day", day))
	return nil
}

// Delete removes book id once confirm approves it. It reports whether the
// book was deleted.
func (s *Service) Delete(id int64, confirm func(store.Book) bool) (bool, error) {
	b, err := s.repo.GetBook(id)
	if err != nil {
		return false, err
	}
	if confirm == nil || !confirm(*b) {
		return false, nil
	}
	if err := s.repo.DeleteBook(id); err != nil {
		return false, err
	}
	s.logger.Info("book deleted", zap.Int64("id", id), zap.String("title", b.Title))
	return true, nil
}

// Import replaces the whole collection with books once confirm approves
// it. confirm receives the current and incoming counts. The replacement is
// atomic; on failure the existing collection is kept.
func (s *Service) Import(books []store.Book, confirm func(current, incoming int) bool) (bool, error) {
	if len(books) == 0 {
		return false, fmt.Errorf("%w: no valid books", ErrMalformedImport)
	}
	current, err := s.repo.CountBooks()
	if err != nil {
		return false, err
	}
	if confirm == nil || !confirm(current, len(books)) {
		return false, nil
	}
	if err := s.repo.ReplaceBooks(books); err != nil {
		s.logger.Error("import books", zap.Error(err))
		return false, fmt.Errorf("import books: %w", err)
	}
	s.logger.Info("books imported", zap.Int("replaced", current), zap.Int("imported", len(books)))
	return true, nil
}

// Export returns the full collection in id order.
func (s *Service) Export() ([]store.Book, error) {
	books, err := s.repo.ListBooks("")
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	if len(books) == 0 {
		return nil, ErrEmptyLibrary
	}
	return slices.Clip(books), nil
}
