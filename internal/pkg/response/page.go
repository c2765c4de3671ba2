package response

// PageResponse wraps one page of a paginated listing.
type PageResponse[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListResponse wraps a complete, unpaginated listing.
type ListResponse[T any] struct {
	Items []T `json:"items"`
}

func NewPageResponse[T any](items []T, page, pageSize, total int) PageResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PageResponse[T]{
		Items:      nonNil(items),
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

func NewListResponse[T any](items []T) ListResponse[T] {
	return ListResponse[T]{Items: nonNil(items)}
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return make([]T, 0)
	}
	return items
}
