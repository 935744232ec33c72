package loans

import "time"

// Borrow request: both fields come from the client.
type BorrowRequest struct {
	BookID       string `json:"book_id" binding:"required"`
	BorrowerName string `json:"borrower_name" binding:"required"`
}

type LoanResponse struct {
	ID           string     `json:"id"`
	BookID       *string    `json:"book_id"`
	BorrowerName string     `json:"borrower_name"`
	BorrowedAt   time.Time  `json:"borrowed_at"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
}
