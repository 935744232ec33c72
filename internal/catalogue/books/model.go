package books

import "time"

// Book is one row of the books table.
type Book struct {
	BookID     int64
	BookULID   string
	Title      string
	Author     string
	IsBorrowed bool
	CreatedAt  time.Time
}

// SortField is the closed set of sortable listing columns.
type SortField string

const (
	SortByTitle     SortField = "title"
	SortByAuthor    SortField = "author"
	SortByID        SortField = "id"
	SortByCreatedAt SortField = "created_at"
)

// column maps the API sort field to the real column. The public id is the
// ULID, which orders by creation time anyway.
func (f SortField) column() (string, bool) {
	switch f {
	case SortByTitle:
		return "title", true
	case SortByAuthor:
		return "author", true
	case SortByID:
		return "book_ulid", true
	case SortByCreatedAt:
		return "created_at", true
	}
	return "", false
}

// BookFilter holds the optional listing filters, combined with AND.
type BookFilter struct {
	Search     string
	Author     string
	IsBorrowed *bool
}

// ListQuery is the validated listing specification.
type ListQuery struct {
	Filter   BookFilter
	SortBy   SortField
	SortDesc bool
	Page     int
	PerPage  int
}
