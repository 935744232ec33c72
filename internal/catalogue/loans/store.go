package loans

import (
	"context"
	"database/sql"
	"time"
)

type LoanStore interface {
	ExecBorrow(ctx context.Context, loan *Loan, bookULID string) error
	ExecReturn(ctx context.Context, loanULID string, now time.Time) (bookTitle string, err error)
	ListLoans(ctx context.Context, includeReturned bool) ([]Loan, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) LoanStore { return &Store{db: db} }

// ExecBorrow handles the full borrow transaction: lock the book row, verify
// availability, insert the loan and flip the flag.
func (s *Store) ExecBorrow(ctx context.Context, loan *Loan, bookULID string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// 1. Lock the book row; borrows of other books lock other rows
	const sel = `SELECT book_id, is_borrowed FROM books WHERE book_ulid = ? FOR UPDATE`
	var bookID int64
	var isBorrowed bool
	if err = tx.QueryRowContext(ctx, sel, bookULID).Scan(&bookID, &isBorrowed); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("Book not found")
		}
		return err
	}

	// 2. Availability check
	if isBorrowed {
		err = ErrConflict("Book already borrowed")
		return err
	}

	// 3. Insert the loan
	const ins = `
	INSERT INTO loans (loan_ulid, book_id, borrower_name, borrowed_at)
	VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, ins, loan.LoanULID, bookID, loan.BorrowerName, loan.BorrowedAt)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	loan.LoanID = id
	loan.BookID = bookID
	loan.BookULID = sql.NullString{String: bookULID, Valid: true}

	// 4. Flip availability
	const upd = `UPDATE books SET is_borrowed = 1 WHERE book_id = ?`
	if _, err = tx.ExecContext(ctx, upd, bookID); err != nil {
		return err
	}

	return tx.Commit()
}

// ExecReturn closes an active loan and clears the book's borrowed flag in
// one transaction. The loan row stays as history with returned_at set.
func (s *Store) ExecReturn(ctx context.Context, loanULID string, now time.Time) (string, error) {
	var title string

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// 1. Find the active loan; already-returned loans are NOT_FOUND
	const sel = `
	SELECT loan_id, book_id FROM loans
	WHERE loan_ulid = ? AND returned_at IS NULL
	FOR UPDATE`
	var loanID, bookID int64
	if err = tx.QueryRowContext(ctx, sel, loanULID).Scan(&loanID, &bookID); err != nil {
		if err == sql.ErrNoRows {
			err = ErrNotFound("Loan not found")
		}
		return "", err
	}

	// 2. Close the loan
	if _, err = tx.ExecContext(ctx, `UPDATE loans SET returned_at = ? WHERE loan_id = ?`, now, loanID); err != nil {
		return "", err
	}

	// 3. Free the book. A missing row means the book was deleted out of
	// band; the return still succeeds, just without a title.
	err = tx.QueryRowContext(ctx, `SELECT title FROM books WHERE book_id = ? FOR UPDATE`, bookID).Scan(&title)
	switch {
	case err == sql.ErrNoRows:
		err = nil
	case err != nil:
		return "", err
	default:
		if _, err = tx.ExecContext(ctx, `UPDATE books SET is_borrowed = 0 WHERE book_id = ?`, bookID); err != nil {
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		return "", err
	}
	return title, nil
}

func (s *Store) ListLoans(ctx context.Context, includeReturned bool) ([]Loan, error) {
	q := `
	SELECT l.loan_id, l.loan_ulid, l.book_id, b.book_ulid, l.borrower_name, l.borrowed_at, l.returned_at
	FROM loans l
	LEFT JOIN books b ON b.book_id = l.book_id`
	if !includeReturned {
		q += `
	WHERE l.returned_at IS NULL`
	}
	q += `
	ORDER BY l.borrowed_at DESC, l.loan_id DESC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(
			&l.LoanID, &l.LoanULID, &l.BookID, &l.BookULID,
			&l.BorrowerName, &l.BorrowedAt, &l.ReturnedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
