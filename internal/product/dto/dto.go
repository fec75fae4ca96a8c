package dto

type ProductFilters struct {
	CategoryID  string `json:"category_id,omitempty"`
	Type        string `json:"product_type,omitempty"`
	IsActive    *bool  `json:"is_active,omitempty"`
	IsFeatured  *bool  `json:"is_featured,omitempty"`
	SearchQuery string `json:"q,omitempty"`
	SortBy      string `json:"sort_by,omitempty"`    // name, price, created_at
	SortOrder   string `json:"sort_order,omitempty"` // asc, desc
	Page        int    `json:"page,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}
