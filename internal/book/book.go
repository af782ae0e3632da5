package book

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"bookexchange/internal/platform/validation"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// ErrEmptyPage is returned by the paginated listings when the requested page
// holds no books.
var ErrEmptyPage = fmt.Errorf("%w: no books on requested page", ErrNotFound)

// Book represents a book-exchange listing.
type Book struct {
	ID            string    `json:"id"`
	Title         string    `json:"title" validate:"notblank"`
	Author        string    `json:"author" validate:"notblank"`
	Genre         string    `json:"genre"`
	PublishedYear *int      `json:"publishedYear,omitempty"`
	OwnerID       string    `json:"ownerId" validate:"notblank"`
	IsAvailable   bool      `json:"isAvailable"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Validate checks the required-field constraints of a listing.
func (b Book) Validate() error {
	return validation.Struct(b)
}

// Page is one page of a paginated listing.
type Page struct {
	Books      []Book `json:"books"`
	TotalBooks int    `json:"totalBooks"`
	TotalPages int    `json:"totalPages"`
}

// Patch is a set of field assignments. Nil fields are left untouched.
type Patch struct {
	Title              *string
	Author             *string
	Genre              *string
	PublishedYear      *int
	ClearPublishedYear bool
	OwnerID            *string
	IsAvailable        *bool
}

// Apply writes the set fields of p onto b. String fields are trimmed.
func (p Patch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = strings.TrimSpace(*p.Title)
	}
	if p.Author != nil {
		b.Author = strings.TrimSpace(*p.Author)
	}
	if p.Genre != nil {
		b.Genre = strings.TrimSpace(*p.Genre)
	}
	if p.ClearPublishedYear {
		b.PublishedYear = nil
	} else if p.PublishedYear != nil {
		year := *p.PublishedYear
		b.PublishedYear = &year
	}
	if p.OwnerID != nil {
		b.OwnerID = strings.TrimSpace(*p.OwnerID)
	}
	if p.IsAvailable != nil {
		b.IsAvailable = *p.IsAvailable
	}
}

// IsEmpty reports whether p assigns nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Genre == nil && p.PublishedYear == nil &&
		!p.ClearPublishedYear && p.OwnerID == nil && p.IsAvailable == nil
}

// patchRules holds the required fields of a partial update. A field that is
// sent must not be blank.
type patchRules struct {
	Title   *string `json:"title" validate:"omitnil,notblank"`
	Author  *string `json:"author" validate:"omitnil,notblank"`
	OwnerID *string `json:"ownerId" validate:"omitnil,notblank"`
}

// Validate rejects a patch that would blank a required field.
func (p Patch) Validate() error {
	return validation.Struct(patchRules{Title: p.Title, Author: p.Author, OwnerID: p.OwnerID})
}

func trimmedPtr(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}

// Trimmed returns p with its string fields trimmed.
func (p Patch) Trimmed() Patch {
	p.Title = trimmedPtr(p.Title)
	p.Author = trimmedPtr(p.Author)
	p.Genre = trimmedPtr(p.Genre)
	p.OwnerID = trimmedPtr(p.OwnerID)
	return p
}
