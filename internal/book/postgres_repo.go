package book

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const booksTable = "books"

var (
	pg = goqu.Dialect("postgres")

	bookColumns = []any{
		"id", "title", "author", "genre", "published_year",
		"owner_id", "is_available", "created_at", "updated_at",
	}

	newestFirst = []exp.OrderedExpression{goqu.C("created_at").Desc(), goqu.C("id").Desc()}
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
	logger  *slog.Logger
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration, logger *slog.Logger) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout, logger: logger}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

type sqlBuilder interface {
	ToSQL() (string, []any, error)
}

func (r *PostgresRepo) build(op string, b sqlBuilder) (string, []any, error) {
	query, args, err := b.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build %s query: %w", op, err)
	}
	r.logger.Debug("sql", "op", op, "query", query)
	return query, args, nil
}

// listFilter translates the scope and search clauses of q into goqu expressions.
func listFilter(q ListQuery) []exp.Expression {
	var where []exp.Expression

	switch q.Scope {
	case ScopeAvailable:
		where = append(where, goqu.C("is_available").IsTrue())
	case ScopeOwner:
		where = append(where, goqu.C("owner_id").Eq(q.OwnerID))
	}

	if q.Search != "" {
		pattern := LikePattern(q.Search)
		where = append(where, goqu.Or(
			goqu.C("title").ILike(pattern),
			goqu.C("author").ILike(pattern),
			goqu.C("genre").ILike(pattern),
		))
	}
	return where
}

// listQueries builds the count and page statements for q.
func listQueries(q ListQuery) (count, page *goqu.SelectDataset) {
	base := pg.From(booksTable).Prepared(true)
	if where := listFilter(q); len(where) > 0 {
		base = base.Where(where...)
	}

	count = base.Select(goqu.COUNT(goqu.Star()))
	page = base.Select(bookColumns...).Order(newestFirst...)
	if q.Limit > 0 {
		page = page.Limit(uint(q.Limit)).Offset(uint(q.Skip()))
	}
	return count, page
}

// pgID normalises id into canonical UUID text; ok is false for anything
// Postgres would reject.
func pgID(id string) (string, bool) {
	parsed, err := uuid.Parse(id)
	if err != nil || len(id) != 36 {
		return "", false
	}
	return parsed.String(), true
}

func nullableYear(year *int) any {
	if year == nil {
		return nil
	}
	return *year
}

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.Title, &b.Author, &b.Genre, &b.PublishedYear,
		&b.OwnerID, &b.IsAvailable, &b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

func (r *PostgresRepo) queryBooks(ctx context.Context, query string, args []any) ([]Book, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, b *Book) error {
	ds := pg.Insert(booksTable).Prepared(true).Rows(goqu.Record{
		"title":          b.Title,
		"author":         b.Author,
		"genre":          b.Genre,
		"published_year": nullableYear(b.PublishedYear),
		"owner_id":       b.OwnerID,
		"is_available":   b.IsAvailable,
	}).Returning(bookColumns...)

	query, args, err := r.build("create", ds)
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	created, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		return err
	}
	*b = created
	return nil
}

func (r *PostgresRepo) GetByID(ctx context.Context, id string) (Book, error) {
	id, ok := pgID(id)
	if !ok {
		return Book{}, ErrNotFound
	}

	ds := pg.From(booksTable).Prepared(true).Select(bookColumns...).Where(goqu.C("id").Eq(id)).Limit(1)
	query, args, err := r.build("get", ds)
	if err != nil {
		return Book{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	b, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return b, nil
}

func (r *PostgresRepo) GetByIDs(ctx context.Context, ids []string) ([]Book, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if canonical, ok := pgID(id); ok {
			valid = append(valid, canonical)
		}
	}
	if len(valid) == 0 {
		return []Book{}, nil
	}

	ds := pg.From(booksTable).Prepared(true).Select(bookColumns...).
		Where(goqu.C("id").In(valid)).
		Order(newestFirst...)
	query, args, err := r.build("get_by_ids", ds)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.queryBooks(timeoutCtx, query, args)
}

func (r *PostgresRepo) List(ctx context.Context, q ListQuery) ([]Book, int, error) {
	countDS, pageDS := listQueries(q)

	countSQL, countArgs, err := r.build("count", countDS)
	if err != nil {
		return nil, 0, err
	}
	pageSQL, pageArgs, err := r.build("list", pageDS)
	if err != nil {
		return nil, 0, err
	}

	var total int
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	if err := r.db.QueryRow(timeoutCtx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 || q.Skip() >= total {
		return []Book{}, total, nil
	}

	books, err := r.queryBooks(timeoutCtx, pageSQL, pageArgs)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

func (r *PostgresRepo) ListAll(ctx context.Context, limit int) ([]Book, error) {
	_, pageDS := listQueries(ListQuery{Scope: ScopeAll, Page: 1, Limit: limit})
	query, args, err := r.build("list_all", pageDS)
	if err != nil {
		return nil, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	return r.queryBooks(timeoutCtx, query, args)
}

// patchRecord lists the columns p assigns. updated_at never precedes created_at.
func patchRecord(p Patch) goqu.Record {
	rec := goqu.Record{"updated_at": goqu.L("GREATEST(NOW(), created_at)")}
	if p.Title != nil {
		rec["title"] = *p.Title
	}
	if p.Author != nil {
		rec["author"] = *p.Author
	}
	if p.Genre != nil {
		rec["genre"] = *p.Genre
	}
	if p.ClearPublishedYear {
		rec["published_year"] = nil
	} else if p.PublishedYear != nil {
		rec["published_year"] = *p.PublishedYear
	}
	if p.OwnerID != nil {
		rec["owner_id"] = *p.OwnerID
	}
	if p.IsAvailable != nil {
		rec["is_available"] = *p.IsAvailable
	}
	return rec
}

func updateQuery(id string, p Patch) *goqu.UpdateDataset {
	return pg.Update(booksTable).Prepared(true).
		Set(patchRecord(p)).
		Where(goqu.C("id").Eq(id)).
		Returning(bookColumns...)
}

func (r *PostgresRepo) Update(ctx context.Context, id string, p Patch) (Book, error) {
	id, ok := pgID(id)
	if !ok {
		return Book{}, ErrNotFound
	}

	query, args, err := r.build("update", updateQuery(id, p))
	if err != nil {
		return Book{}, err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	updated, err := scanBook(r.db.QueryRow(timeoutCtx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, err
	}
	return updated, nil
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	id, ok := pgID(id)
	if !ok {
		return ErrNotFound
	}

	ds := pg.Delete(booksTable).Prepared(true).Where(goqu.C("id").Eq(id))
	query, args, err := r.build("delete", ds)
	if err != nil {
		return err
	}

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()
	tag, err := r.db.Exec(timeoutCtx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
