package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listing struct {
	Title   string   `json:"title" validate:"notblank"`
	OwnerID string   `json:"ownerId" validate:"required"`
	Year    *int     `json:"publishedYear,omitempty" validate:"omitempty,gte=0,lte=3000"`
	IDs     []string `json:"ids" validate:"max=3"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(listing{Title: "Dune", OwnerID: "u1"}))
}

func TestStruct_RequiredFieldsUseJSONNames(t *testing.T) {
	err := Struct(listing{Title: "   "})
	require.Error(t, err)

	fields, ok := FieldsOf(err)
	require.True(t, ok)

	got := map[string]string{}
	for _, f := range fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, "title is required", got["title"])
	assert.Equal(t, "ownerId is required", got["ownerId"])
}

func TestStruct_OtherTagsReportInvalid(t *testing.T) {
	year := 5000
	err := Struct(listing{Title: "x", OwnerID: "u", Year: &year, IDs: []string{"a", "b", "c", "d"}})

	fields, ok := FieldsOf(err)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "publishedYear", fields[0].Field)
	assert.Equal(t, "ids", fields[1].Field)
	assert.Equal(t, "publishedYear is invalid", fields[0].Message)
	assert.Equal(t, "ids is invalid", fields[1].Message)
}

func TestErrors_Error(t *testing.T) {
	err := New(FieldError{Field: "ids", Message: "ids must be an array"})
	assert.Equal(t, "validation failed: ids must be an array", err.Error())

	var target *Errors
	assert.True(t, errors.As(error(err), &target))
}

func TestFieldsOf_OtherError(t *testing.T) {
	_, ok := FieldsOf(errors.New("boom"))
	assert.False(t, ok)
}
