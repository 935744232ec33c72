package books

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	ulid "github.com/oklog/ulid/v2"
	"golang.org/x/text/width"
)

// ===== Error model =====
type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }
func ErrConflict(msg string) *APIError { return &APIError{Code: CodeConflict, Message: msg} }
func ErrInternal(msg string) *APIError { return &APIError{Code: CodeInternal, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		case CodeConflict:
			// existing clients expect 400 here, not 409
			return 400
		default:
			return 500
		}
	}
	return 500
}

// ===== Service =====

const (
	maxPerPage     = 100
	defaultPerPage = 10
)

type Service struct {
	store BookStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

func (s *Service) Create(ctx context.Context, in CreateBookRequest) (BookResponse, error) {
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Author) == "" {
		return BookResponse{}, ErrInvalid("title and author are required")
	}

	b := &Book{
		BookULID: ulid.Make().String(),
		Title:    in.Title,
		Author:   in.Author,
	}
	if err := s.store.Insert(ctx, b); err != nil {
		return BookResponse{}, err
	}

	// re-read for the DB-assigned created_at
	out, err := s.store.GetByULID(ctx, b.BookULID)
	if err != nil {
		return BookResponse{}, err
	}
	return buildBookResponse(out), nil
}

func (s *Service) Get(ctx context.Context, id string) (BookResponse, error) {
	b, err := s.store.GetByULID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BookResponse{}, ErrNotFound("Book not found")
		}
		return BookResponse{}, err
	}
	return buildBookResponse(b), nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateBookRequest) (BookResponse, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return BookResponse{}, ErrInvalid("title must not be empty")
	}
	if in.Author != nil && strings.TrimSpace(*in.Author) == "" {
		return BookResponse{}, ErrInvalid("author must not be empty")
	}

	b, err := s.store.Update(ctx, id, in)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return BookResponse{}, ErrNotFound("Book not found")
		}
		return BookResponse{}, err
	}
	return buildBookResponse(b), nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, q ListQuery) (BookListResponse, error) {
	if q.Page < 1 {
		return BookListResponse{}, ErrInvalid("Page must be greater than 0")
	}
	if q.PerPage < 1 || q.PerPage > maxPerPage {
		return BookListResponse{}, ErrInvalid("per_page must be between 1 and 100")
	}
	if _, ok := q.SortBy.column(); !ok {
		return BookListResponse{}, ErrInvalid("Invalid sort field. Must be one of: title, author, id, created_at")
	}

	// fold full-width characters so a full-width search term still matches
	q.Filter.Search = width.Fold.String(strings.TrimSpace(q.Filter.Search))
	q.Filter.Author = width.Fold.String(strings.TrimSpace(q.Filter.Author))

	items, total, err := s.store.List(ctx, q)
	if err != nil {
		return BookListResponse{}, err
	}

	totalPages := (total + int64(q.PerPage) - 1) / int64(q.PerPage)

	out := BookListResponse{
		Books: make([]BookResponse, 0, len(items)),
		Pagination: Pagination{
			Page:       q.Page,
			PerPage:    q.PerPage,
			TotalPages: totalPages,
			TotalItems: total,
			HasNext:    int64(q.Page) < totalPages,
			HasPrev:    q.Page > 1,
		},
	}
	for i := range items {
		out.Books = append(out.Books, buildBookResponse(&items[i]))
	}
	return out, nil
}

func buildBookResponse(b *Book) BookResponse {
	return BookResponse{
		ID:         b.BookULID,
		Title:      b.Title,
		Author:     b.Author,
		IsBorrowed: b.IsBorrowed,
		CreatedAt:  b.CreatedAt,
	}
}
