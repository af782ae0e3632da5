package book

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"bookexchange/internal/platform/validation"
)

// Scope is the mandatory clause that distinguishes the listing endpoints.
type Scope int

const (
	// ScopeAll applies no scope clause.
	ScopeAll Scope = iota
	// ScopeAvailable keeps books with isAvailable == true.
	ScopeAvailable
	// ScopeOwner keeps books whose ownerId equals ListQuery.OwnerID.
	ScopeOwner
)

func (s Scope) String() string {
	switch s {
	case ScopeAvailable:
		return "available"
	case ScopeOwner:
		return "owner"
	default:
		return "all"
	}
}

// PageQuery holds the search and pagination parameters of a listing request.
type PageQuery struct {
	Search string
	Page   int
	Limit  int
}

// PageDefaults bounds ParsePageQuery.
type PageDefaults struct {
	Limit    int
	MaxLimit int
}

// ParsePageQuery reads search, page and limit from query-string values.
// search is kept verbatim and matched as a literal substring.
// Missing page means 1 and missing limit means d.Limit; anything that is not
// a positive integer, or a limit above d.MaxLimit, is a validation error.
func ParsePageQuery(values url.Values, d PageDefaults) (PageQuery, error) {
	pq := PageQuery{
		Search: values.Get("search"),
		Page:   1,
		Limit:  d.Limit,
	}

	var errs []validation.FieldError
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			errs = append(errs, validation.FieldError{Field: "page", Message: "page must be a positive integer"})
		} else {
			pq.Page = page
		}
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		switch {
		case err != nil || limit < 1:
			errs = append(errs, validation.FieldError{Field: "limit", Message: "limit must be a positive integer"})
		case d.MaxLimit > 0 && limit > d.MaxLimit:
			errs = append(errs, validation.FieldError{Field: "limit", Message: fmt.Sprintf("limit must be at most %d", d.MaxLimit)})
		default:
			pq.Limit = limit
		}
	}

	if len(errs) > 0 {
		return PageQuery{}, validation.New(errs...)
	}
	return pq, nil
}

// ListQuery is a store-agnostic listing request: scope clause AND a
// case-insensitive substring match on title, author or genre, ordered by
// createdAt descending. A zero Limit means no limit.
type ListQuery struct {
	Scope   Scope
	OwnerID string
	Search  string
	Page    int
	Limit   int
}

// NewAvailableQuery scopes pq to available books.
func NewAvailableQuery(pq PageQuery) ListQuery {
	return ListQuery{Scope: ScopeAvailable, Search: pq.Search, Page: pq.Page, Limit: pq.Limit}
}

// NewOwnerQuery scopes pq to the books of ownerID.
func NewOwnerQuery(ownerID string, pq PageQuery) ListQuery {
	return ListQuery{Scope: ScopeOwner, OwnerID: ownerID, Search: pq.Search, Page: pq.Page, Limit: pq.Limit}
}

// Skip is the number of matching records that precede the requested page.
func (q ListQuery) Skip() int {
	if q.Page < 1 || q.Limit < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// TotalPages is ceil(total / limit); it is 0 when there is nothing to page.
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// Matches evaluates the query's filter against b.
func (q ListQuery) Matches(b Book) bool {
	switch q.Scope {
	case ScopeAvailable:
		if !b.IsAvailable {
			return false
		}
	case ScopeOwner:
		if b.OwnerID != q.OwnerID {
			return false
		}
	}
	if q.Search == "" {
		return true
	}
	needle := strings.ToLower(q.Search)
	return strings.Contains(strings.ToLower(b.Title), needle) ||
		strings.Contains(strings.ToLower(b.Author), needle) ||
		strings.Contains(strings.ToLower(b.Genre), needle)
}

// Newer reports whether a sorts before b in listing order.
func Newer(a, b Book) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns a search string into a SQL LIKE pattern matching it as a
// literal substring.
func LikePattern(search string) string {
	return "%" + likeEscaper.Replace(search) + "%"
}
