package book

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"bookexchange/internal/platform/validation"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, Options{})

	t.Run("defaults availability", func(t *testing.T) {
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, b *Book) error {
			assert.True(t, b.IsAvailable)
			assert.Equal(t, "Dune", b.Title)
			b.ID = "b1"
			return nil
		})

		b, err := service.Create(t.Context(), Patch{Title: strPtr(" Dune "), Author: strPtr("Frank Herbert"), OwnerID: strPtr("u1")})
		require.NoError(t, err)
		assert.Equal(t, "b1", b.ID)
	})

	t.Run("missing fields", func(t *testing.T) {
		_, err := service.Create(t.Context(), Patch{Title: strPtr("   ")})
		fields, ok := validation.FieldsOf(err)
		require.True(t, ok)
		assert.Len(t, fields, 3)
	})

	t.Run("store error", func(t *testing.T) {
		boom := errors.New("boom")
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(boom)

		_, err := service.Create(t.Context(), Patch{Title: strPtr("a"), Author: strPtr("b"), OwnerID: strPtr("c")})
		assert.ErrorIs(t, err, boom)
	})
}

func TestService_GetByIDs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, Options{MaxByIDs: 3})

	t.Run("dedupes and trims", func(t *testing.T) {
		mockRepo.EXPECT().GetByIDs(gomock.Any(), []string{"a", "b"}).Return([]Book{{ID: "a"}}, nil)

		books, err := service.GetByIDs(t.Context(), []string{"a", " a ", "", "b"})
		require.NoError(t, err)
		assert.Len(t, books, 1)
	})

	t.Run("empty list skips store", func(t *testing.T) {
		books, err := service.GetByIDs(t.Context(), nil)
		require.NoError(t, err)
		assert.NotNil(t, books)
		assert.Empty(t, books)
	})

	t.Run("too many ids", func(t *testing.T) {
		_, err := service.GetByIDs(t.Context(), []string{"a", "b", "c", "d"})
		_, ok := validation.FieldsOf(err)
		assert.True(t, ok)
	})
}

func TestService_ListEmptyPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)

	mockRepo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, 0, nil).Times(2)

	_, err := NewService(mockRepo, Options{EmptyPageNotFound: true}).ListAvailable(t.Context(), PageQuery{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrEmptyPage)

	page, err := NewService(mockRepo, Options{}).ListAvailable(t.Context(), PageQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.NotNil(t, page.Books)
	assert.Equal(t, 0, page.TotalPages)
}

func TestService_ListPassesScope(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, Options{})

	want := ListQuery{Scope: ScopeOwner, OwnerID: "u1", Search: "dune", Page: 2, Limit: 5}
	mockRepo.EXPECT().List(gomock.Any(), want).Return([]Book{{ID: "x"}}, 7, nil)

	page, err := service.ListByOwner(t.Context(), "u1", PageQuery{Search: "dune", Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 7, page.TotalBooks)
	assert.Equal(t, 2, page.TotalPages)
}

func TestService_GetAllUsesLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)

	mockRepo.EXPECT().ListAll(gomock.Any(), 50).Return(nil, nil)

	books, err := NewService(mockRepo, Options{ListAllLimit: 50}).GetAll(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, books)
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, Options{})

	t.Run("passes only the sent fields", func(t *testing.T) {
		available := false
		want := Patch{IsAvailable: &available}
		mockRepo.EXPECT().Update(gomock.Any(), "b1", want).
			Return(Book{ID: "b1", Title: "Dune", Author: "Frank Herbert", OwnerID: "u1"}, nil)

		b, err := service.Update(t.Context(), "b1", Patch{IsAvailable: &available})
		require.NoError(t, err)
		assert.False(t, b.IsAvailable)
		assert.Equal(t, "Dune", b.Title)
	})

	t.Run("trims before writing", func(t *testing.T) {
		mockRepo.EXPECT().Update(gomock.Any(), "b1", Patch{Title: strPtr("Dune")}).Return(Book{ID: "b1"}, nil)

		_, err := service.Update(t.Context(), "b1", Patch{Title: strPtr("  Dune ")})
		require.NoError(t, err)
	})

	t.Run("blanking a required field", func(t *testing.T) {
		_, err := service.Update(t.Context(), "b1", Patch{Author: strPtr(" ")})
		fields, ok := validation.FieldsOf(err)
		require.True(t, ok)
		require.Len(t, fields, 1)
		assert.Equal(t, "author", fields[0].Field)
	})

	t.Run("not found", func(t *testing.T) {
		mockRepo.EXPECT().Update(gomock.Any(), "nope", Patch{}).Return(Book{}, ErrNotFound)

		_, err := service.Update(t.Context(), "nope", Patch{})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

// interleavingRepo runs before once, just ahead of the first Update it
// forwards, to model a second request landing mid-update.
type interleavingRepo struct {
	Repository
	before func()
}

func (r *interleavingRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	if hook := r.before; hook != nil {
		r.before = nil
		hook()
	}
	return r.Repository.Update(ctx, id, p)
}

func TestService_OverlappingUpdatesKeepBothChanges(t *testing.T) {
	mem := NewMemoryRepo()
	repo := &interleavingRepo{Repository: mem}
	svc := NewService(repo, Options{})

	created := seed(t, svc, Book{Title: "Dune", Author: "Frank Herbert", OwnerID: "u1", IsAvailable: true})[0]

	repo.before = func() {
		available := false
		_, err := svc.Update(t.Context(), created.ID, Patch{IsAvailable: &available})
		require.NoError(t, err)
	}
	_, err := svc.Update(t.Context(), created.ID, Patch{Title: strPtr("Dune Messiah")})
	require.NoError(t, err)

	final, err := svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", final.Title)
	assert.False(t, final.IsAvailable)
}

func TestService_ConcurrentUpdatesOfDistinctFields(t *testing.T) {
	svc := NewService(NewMemoryRepo(), Options{})
	created := seed(t, svc, Book{Title: "Dune", Author: "Frank Herbert", OwnerID: "u1", IsAvailable: true})[0]

	patches := []Patch{
		{Title: strPtr("Dune Messiah")},
		{Author: strPtr("F. Herbert")},
		{Genre: strPtr("Sci-Fi")},
		{OwnerID: strPtr("u2")},
	}

	var wg sync.WaitGroup
	for _, p := range patches {
		wg.Add(1)
		go func(p Patch) {
			defer wg.Done()
			_, err := svc.Update(context.Background(), created.ID, p)
			assert.NoError(t, err)
		}(p)
	}
	wg.Wait()

	final, err := svc.GetByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", final.Title)
	assert.Equal(t, "F. Herbert", final.Author)
	assert.Equal(t, "Sci-Fi", final.Genre)
	assert.Equal(t, "u2", final.OwnerID)
	assert.True(t, final.IsAvailable)
}

func seed(t *testing.T, svc *Service, books ...Book) []Book {
	t.Helper()
	out := make([]Book, 0, len(books))
	for _, b := range books {
		available := b.IsAvailable
		created, err := svc.Create(t.Context(), Patch{
			Title:       strPtr(b.Title),
			Author:      strPtr(b.Author),
			Genre:       strPtr(b.Genre),
			OwnerID:     strPtr(b.OwnerID),
			IsAvailable: &available,
		})
		require.NoError(t, err)
		out = append(out, created)
	}
	return out
}

func TestService_PagesConcatenateToFullResult(t *testing.T) {
	svc := NewService(NewMemoryRepo(), Options{EmptyPageNotFound: true})

	var all []Book
	for i := 0; i < 23; i++ {
		all = append(all, Book{
			Title:       fmt.Sprintf("Book %02d", i),
			Author:      "Author",
			OwnerID:     fmt.Sprintf("u%d", i%3),
			IsAvailable: i%4 != 0,
		})
	}
	seed(t, svc, all...)

	var collected []Book
	for page := 1; ; page++ {
		p, err := svc.ListAvailable(t.Context(), PageQuery{Page: page, Limit: 5})
		if errors.Is(err, ErrEmptyPage) {
			break
		}
		require.NoError(t, err)
		assert.Equal(t, 17, p.TotalBooks)
		assert.Equal(t, 4, p.TotalPages)
		collected = append(collected, p.Books...)
	}

	require.Len(t, collected, 17)
	for i := range collected {
		assert.True(t, collected[i].IsAvailable)
		if i > 0 {
			assert.False(t, collected[i].CreatedAt.After(collected[i-1].CreatedAt))
		}
	}
}

func TestService_OwnerScopeAndSearch(t *testing.T) {
	svc := NewService(NewMemoryRepo(), Options{EmptyPageNotFound: true})
	seed(t, svc,
		Book{Title: "Dune", Author: "Frank Herbert", Genre: "Sci-Fi", OwnerID: "u1", IsAvailable: true},
		Book{Title: "Emma", Author: "Jane Austen", Genre: "Romance", OwnerID: "u1"},
		Book{Title: "Dune Messiah", Author: "Frank Herbert", Genre: "Sci-Fi", OwnerID: "u2", IsAvailable: true},
	)

	page, err := svc.ListByOwner(t.Context(), "u1", PageQuery{Search: "dune", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Books, 1)
	assert.Equal(t, "Dune", page.Books[0].Title)
	assert.Equal(t, 1, page.TotalBooks)
	assert.Equal(t, 1, page.TotalPages)

	page, err = svc.ListAvailable(t.Context(), PageQuery{Search: "HERBERT", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalBooks)
	assert.Equal(t, "Dune Messiah", page.Books[0].Title)

	_, err = svc.ListByOwner(t.Context(), "u3", PageQuery{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_LifecycleOnMemoryRepo(t *testing.T) {
	svc := NewService(NewMemoryRepo(), Options{})
	created := seed(t, svc, Book{Title: "Dune", Author: "Frank Herbert", OwnerID: "u1", IsAvailable: true})[0]

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	updated, err := svc.Update(t.Context(), created.ID, Patch{Genre: strPtr("Sci-Fi")})
	require.NoError(t, err)
	assert.Equal(t, "Sci-Fi", updated.Genre)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

	require.NoError(t, svc.Delete(t.Context(), created.ID))
	_, err = svc.GetByID(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(t.Context(), created.ID), ErrNotFound)
}
