package book

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=book

import (
	"context"
)

// Repository defines the contract for book data storage.
//
// Implementations assign ID, CreatedAt and UpdatedAt, return ErrNotFound for
// unknown or malformed ids, and order every multi-record result by CreatedAt
// descending. Update applies only the fields a Patch sets, in a single
// atomic write, and returns the stored result.
type Repository interface {
	Create(ctx context.Context, b *Book) error
	GetByID(ctx context.Context, id string) (Book, error)
	GetByIDs(ctx context.Context, ids []string) ([]Book, error)
	List(ctx context.Context, q ListQuery) ([]Book, int, error)
	ListAll(ctx context.Context, limit int) ([]Book, error)
	Update(ctx context.Context, id string, p Patch) (Book, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
