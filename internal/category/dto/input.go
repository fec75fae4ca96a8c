package dto

type CreateCategoryInput struct {
	ParentID    *string
	Name        string
	Slug        string // derived from Name when empty
	Description string
	SortOrder   int
}

type UpdateCategoryInput struct {
	ID          string
	ParentID    *string
	Name        string
	Slug        string
	Description string
	SortOrder   int
	IsActive    bool
}
