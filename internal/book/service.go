package book

import (
	"context"
	"fmt"
	"strings"

	"bookexchange/internal/platform/validation"
)

// Options tune the listing behaviour of Service.
type Options struct {
	// EmptyPageNotFound makes paginated listings fail with ErrEmptyPage
	// instead of returning an empty page.
	EmptyPageNotFound bool
	// ListAllLimit caps GetAll. Zero means unbounded.
	ListAllLimit int
	// MaxByIDs caps the number of ids accepted by GetByIDs. Zero means no cap.
	MaxByIDs int
}

// Service provides book-related business logic.
type Service struct {
	repo Repository
	opts Options
}

// NewService creates a new book service.
func NewService(repo Repository, opts Options) *Service {
	return &Service{repo: repo, opts: opts}
}

// Create validates and stores a new listing. Books are available unless the
// patch says otherwise.
func (s *Service) Create(ctx context.Context, p Patch) (Book, error) {
	b := Book{IsAvailable: true}
	p.Apply(&b)
	if err := b.Validate(); err != nil {
		return Book{}, err
	}
	if err := s.repo.Create(ctx, &b); err != nil {
		return Book{}, fmt.Errorf("create book: %w", err)
	}
	return b, nil
}

// GetByID returns a book by its id.
func (s *Service) GetByID(ctx context.Context, id string) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// GetAll returns every book, newest first, bounded by Options.ListAllLimit.
func (s *Service) GetAll(ctx context.Context) ([]Book, error) {
	books, err := s.repo.ListAll(ctx, s.opts.ListAllLimit)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return nonNil(books), nil
}

// GetByIDs returns the books whose ids are listed. Unknown ids are ignored.
func (s *Service) GetByIDs(ctx context.Context, ids []string) ([]Book, error) {
	if s.opts.MaxByIDs > 0 && len(ids) > s.opts.MaxByIDs {
		return nil, validation.New(validation.FieldError{
			Field:   "ids",
			Message: fmt.Sprintf("ids must contain at most %d items", s.opts.MaxByIDs),
		})
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []Book{}, nil
	}

	books, err := s.repo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("get books by ids: %w", err)
	}
	return nonNil(books), nil
}

// ListAvailable returns one page of available books matching pq.
func (s *Service) ListAvailable(ctx context.Context, pq PageQuery) (Page, error) {
	return s.list(ctx, NewAvailableQuery(pq))
}

// ListByOwner returns one page of ownerID's books matching pq.
func (s *Service) ListByOwner(ctx context.Context, ownerID string, pq PageQuery) (Page, error) {
	return s.list(ctx, NewOwnerQuery(ownerID, pq))
}

func (s *Service) list(ctx context.Context, q ListQuery) (Page, error) {
	books, total, err := s.repo.List(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("list %s books: %w", q.Scope, err)
	}
	if len(books) == 0 && s.opts.EmptyPageNotFound {
		return Page{}, ErrEmptyPage
	}
	return Page{
		Books:      nonNil(books),
		TotalBooks: total,
		TotalPages: TotalPages(total, q.Limit),
	}, nil
}

// Update applies p to the stored book. Only the fields p sets are written, so
// concurrent updates of different fields do not overwrite each other.
func (s *Service) Update(ctx context.Context, id string, p Patch) (Book, error) {
	p = p.Trimmed()
	if err := p.Validate(); err != nil {
		return Book{}, err
	}
	b, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return Book{}, fmt.Errorf("update book %s: %w", id, err)
	}
	return b, nil
}

// Delete removes a book.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func nonNil(books []Book) []Book {
	if books == nil {
		return []Book{}
	}
	return books
}
