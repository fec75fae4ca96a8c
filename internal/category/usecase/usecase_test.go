package usecase

import (
	"testing"

	"github.com/fekuna/omnipos-storefront/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Home & Garden":   "home-garden",
		"  Books  ":       "books",
		"E-Books (PDF)":   "e-books-pdf",
		"Café Crème":      "café-crème",
		"!!!":             "",
		"Workshops 2026 ": "workshops-2026",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Slugify(in))
		})
	}
}

func TestBuildTree(t *testing.T) {
	id := func(s string) *string { return &s }
	flat := []model.Category{
		{BaseModel: model.BaseModel{ID: "root"}, Name: "Shop"},
		{BaseModel: model.BaseModel{ID: "books"}, ParentID: id("root"), Name: "Books"},
		{BaseModel: model.BaseModel{ID: "ebooks"}, ParentID: id("books"), Name: "E-Books"},
		{BaseModel: model.BaseModel{ID: "classes"}, ParentID: id("root"), Name: "Classes"},
		{BaseModel: model.BaseModel{ID: "orphan"}, ParentID: id("gone"), Name: "Orphan"},
	}

	roots := BuildTree(flat)
	require.Len(t, roots, 2)
	assert.Equal(t, "root", roots[0].ID)
	assert.Equal(t, "orphan", roots[1].ID)

	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "books", roots[0].Children[0].ID)
	assert.Equal(t, "classes", roots[0].Children[1].ID)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "ebooks", roots[0].Children[0].Children[0].ID)
}

func TestSlugOrDefault(t *testing.T) {
	assert.Equal(t, "custom", slugOrDefault("Custom", "Name"))
	assert.Equal(t, "name-here", slugOrDefault("", "Name Here"))
}
