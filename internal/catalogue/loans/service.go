package loans

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
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

// ===== Clock / ID seams =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ===== Service =====

type Service struct {
	store LoanStore
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{
		store: NewStore(db),
		clock: realClock{},
		id:    ulidGen{},
	}
}

// Borrow creates a loan for an available book. The availability check and
// the insert run in one store transaction, so concurrent borrows of the same
// book cannot both succeed.
func (s *Service) Borrow(ctx context.Context, req BorrowRequest) (*LoanResponse, error) {
	if strings.TrimSpace(req.BookID) == "" || strings.TrimSpace(req.BorrowerName) == "" {
		return nil, ErrInvalid("book_id and borrower_name are required")
	}

	idStr, err := s.id.New()
	if err != nil {
		return nil, err
	}

	loan := &Loan{
		LoanULID:     idStr,
		BorrowerName: req.BorrowerName,
		BorrowedAt:   s.clock.Now(),
	}
	if err := s.store.ExecBorrow(ctx, loan, req.BookID); err != nil {
		return nil, err
	}

	resp := buildLoanResponse(loan)
	return &resp, nil
}

// Return closes an active loan and frees the book. A second return of the
// same loan fails with NOT_FOUND and does not touch availability again.
func (s *Service) Return(ctx context.Context, loanID string) (string, error) {
	if loanID == "" {
		return "", ErrInvalid("loan id is required")
	}
	return s.store.ExecReturn(ctx, loanID, s.clock.Now())
}

// List returns active loans; includeReturned adds the history.
func (s *Service) List(ctx context.Context, includeReturned bool) ([]LoanResponse, error) {
	items, err := s.store.ListLoans(ctx, includeReturned)
	if err != nil {
		return nil, err
	}

	result := make([]LoanResponse, 0, len(items))
	for i := range items {
		result = append(result, buildLoanResponse(&items[i]))
	}
	return result, nil
}

func buildLoanResponse(l *Loan) LoanResponse {
	resp := LoanResponse{
		ID:           l.LoanULID,
		BorrowerName: l.BorrowerName,
		BorrowedAt:   l.BorrowedAt,
	}
	if l.BookULID.Valid {
		val := l.BookULID.String
		resp.BookID = &val
	}
	if l.ReturnedAt.Valid {
		val := l.ReturnedAt.Time
		resp.ReturnedAt = &val
	}
	return resp
}
