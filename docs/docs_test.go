package docs

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestReadDoc(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Swagger string                    `json:"swagger"`
		Info    map[string]any            `json:"info"`
		Paths   map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(raw, &doc))

	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "Book Exchange API", doc.Info["title"])
	for _, path := range []string{"/books/auth", "/books/", "/books/available-books/", "/books/by-ids", "/books/owner/{id}", "/books/{id}"} {
		assert.Contains(t, doc.Paths, path)
	}
	assert.Len(t, doc.Paths["/books/{id}"], 3)
}
