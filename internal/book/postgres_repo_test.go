package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListQueries_AvailableWithSearch(t *testing.T) {
	count, page := listQueries(ListQuery{Scope: ScopeAvailable, Search: "du_ne", Page: 2, Limit: 10})

	countSQL, countArgs, err := count.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, countSQL, `COUNT(*)`)
	assert.Contains(t, countSQL, `"is_available" IS TRUE`)
	assert.Contains(t, countSQL, `"title" ILIKE $1`)
	assert.Contains(t, countSQL, `"genre" ILIKE $3`)
	require.Len(t, countArgs, 3)
	assert.Equal(t, `%du\_ne%`, countArgs[0])

	pageSQL, _, err := page.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, pageSQL, `ORDER BY "created_at" DESC, "id" DESC`)
	assert.Contains(t, pageSQL, `LIMIT`)
	assert.Contains(t, pageSQL, `OFFSET`)
}

func TestListQueries_Owner(t *testing.T) {
	count, _ := listQueries(ListQuery{Scope: ScopeOwner, OwnerID: "u1", Page: 1, Limit: 10})

	sql, args, err := count.ToSQL()
	require.NoError(t, err)
	assert.Contains(t, sql, `"owner_id" = $1`)
	assert.NotContains(t, sql, "ILIKE")
	assert.Equal(t, []any{"u1"}, args)
}

func TestListQueries_Unbounded(t *testing.T) {
	_, page := listQueries(ListQuery{Scope: ScopeAll})

	sql, _, err := page.ToSQL()
	require.NoError(t, err)
	assert.NotContains(t, sql, "WHERE")
	assert.NotContains(t, sql, "LIMIT")
}

func TestPgID(t *testing.T) {
	id, ok := pgID("6F9619FF-8B86-D011-B42D-00C04FC964FF")
	assert.True(t, ok)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", id)

	for _, bad := range []string{"", "abc", "{6f9619ff-8b86-d011-b42d-00c04fc964ff}", "507f1f77bcf86cd799439011"} {
		_, ok := pgID(bad)
		assert.False(t, ok, bad)
	}
}

func TestUpdateQuery_SetsOnlyPatchedColumns(t *testing.T) {
	available := false
	sql, args, err := updateQuery("6f9619ff-8b86-d011-b42d-00c04fc964ff", Patch{IsAvailable: &available}).ToSQL()
	require.NoError(t, err)

	assert.Contains(t, sql, `"is_available"=`)
	assert.Contains(t, sql, `"updated_at"=GREATEST(NOW(), created_at)`)
	assert.Contains(t, sql, `RETURNING`)
	for _, col := range []string{`"title"=`, `"author"=`, `"genre"=`, `"owner_id"=`, `"published_year"=`} {
		assert.NotContains(t, sql, col)
	}
	assert.Contains(t, args, false)
}

func TestPatchRecord_ClearYear(t *testing.T) {
	rec := patchRecord(Patch{ClearPublishedYear: true, Title: strPtr("Dune")})

	year, ok := rec["published_year"]
	require.True(t, ok)
	assert.Nil(t, year)
	assert.Equal(t, "Dune", rec["title"])
	assert.NotContains(t, rec, "author")
}
