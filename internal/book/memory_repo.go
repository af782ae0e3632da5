package book

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-process Repository. It backs the memory:// DSN and
// the service-level tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	books map[string]Book
	last  time.Time
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		books: make(map[string]Book),
		now:   time.Now,
	}
}

// tick returns a timestamp strictly after every one handed out before, so
// that creation order is total.
func (r *MemoryRepo) tick() time.Time {
	t := r.now().UTC()
	if !t.After(r.last) {
		t = r.last.Add(time.Microsecond)
	}
	r.last = t
	return t
}

func (r *MemoryRepo) Create(ctx context.Context, b *Book) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b.ID = uuid.NewString()
	b.CreatedAt = r.tick()
	b.UpdatedAt = b.CreatedAt
	r.books[b.ID] = clone(*b)
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	return clone(b), nil
}

func (r *MemoryRepo) GetByIDs(ctx context.Context, ids []string) ([]Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Book, 0, len(ids))
	for _, id := range ids {
		if b, ok := r.books[id]; ok {
			out = append(out, clone(b))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepo) List(ctx context.Context, q ListQuery) ([]Book, int, error) {
	r.mu.RLock()
	matched := make([]Book, 0)
	for _, b := range r.books {
		if q.Matches(b) {
			matched = append(matched, clone(b))
		}
	}
	r.mu.RUnlock()

	sortNewestFirst(matched)
	total := len(matched)

	start := q.Skip()
	if start >= total {
		return []Book{}, total, nil
	}
	end := total
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	return matched[start:end], total, nil
}

func (r *MemoryRepo) ListAll(ctx context.Context, limit int) ([]Book, error) {
	books, _, err := r.List(ctx, ListQuery{Scope: ScopeAll, Page: 1, Limit: limit})
	return books, err
}

func (r *MemoryRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[id]
	if !ok {
		return Book{}, ErrNotFound
	}
	p.Apply(&b)
	b.UpdatedAt = r.tick()
	r.books[id] = clone(b)
	return clone(b), nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.books[id]; !ok {
		return ErrNotFound
	}
	delete(r.books, id)
	return nil
}

func (r *MemoryRepo) Ping(ctx context.Context) error {
	return ctx.Err()
}

func sortNewestFirst(books []Book) {
	sort.Slice(books, func(i, j int) bool { return Newer(books[i], books[j]) })
}

func clone(b Book) Book {
	if b.PublishedYear != nil {
		year := *b.PublishedYear
		b.PublishedYear = &year
	}
	return b
}
