package loans

import (
	"database/sql"
	"time"
)

// Loan is one row of the loans table. BookULID is joined in from books and
// may be missing when the book was deleted after the loan was returned.
type Loan struct {
	LoanID       int64
	LoanULID     string
	BookID       int64
	BookULID     sql.NullString
	BorrowerName string
	BorrowedAt   time.Time
	ReturnedAt   sql.NullTime
}
