package books

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	pdb "github.com/DMinh1102/INT3505E-02-demo/internal/platform/db"
)

type BookStore interface {
	Insert(ctx context.Context, b *Book) error
	GetByULID(ctx context.Context, ulid string) (*Book, error)
	Update(ctx context.Context, ulid string, in UpdateBookRequest) (*Book, error)
	Delete(ctx context.Context, ulid string) error
	List(ctx context.Context, q ListQuery) ([]Book, int64, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) BookStore { return &Store{db: db} }

func (s *Store) Insert(ctx context.Context, b *Book) error {
	const q = `
	INSERT INTO books (book_ulid, title, author, is_borrowed, created_at)
	VALUES (?, ?, ?, 0, CURRENT_TIMESTAMP(6))`
	res, err := s.db.ExecContext(ctx, q, b.BookULID, b.Title, b.Author)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.BookID = id
	return nil
}

func (s *Store) GetByULID(ctx context.Context, ulid string) (*Book, error) {
	const q = `
	SELECT book_id, book_ulid, title, author, is_borrowed, created_at
	FROM books WHERE book_ulid = ?`
	var b Book
	if err := s.db.QueryRowContext(ctx, q, ulid).Scan(
		&b.BookID, &b.BookULID, &b.Title, &b.Author, &b.IsBorrowed, &b.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *Store) Update(ctx context.Context, ulid string, in UpdateBookRequest) (*Book, error) {
	sets := []string{}
	args := []any{}
	if in.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *in.Title)
	}
	if in.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *in.Author)
	}
	if len(sets) == 0 {
		// nothing to change, return the current row
		return s.GetByULID(ctx, ulid)
	}
	args = append(args, ulid)
	q := fmt.Sprintf(`UPDATE books SET %s WHERE book_ulid = ?`, strings.Join(sets, ", "))

	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return nil, err
	}
	// RowsAffected is 0 for both a missing row and a no-op update, so let the
	// re-read decide existence
	return s.GetByULID(ctx, ulid)
}

// Delete removes a book unless it has an active loan. The availability check
// and the delete run in one transaction so a concurrent borrow cannot slip in
// between them.
func (s *Store) Delete(ctx context.Context, ulid string) error {
	return pdb.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx pdb.DBTX) error {
		const sel = `SELECT book_id, is_borrowed FROM books WHERE book_ulid = ? FOR UPDATE`
		var bookID int64
		var isBorrowed bool
		if err := tx.QueryRowContext(ctx, sel, ulid).Scan(&bookID, &isBorrowed); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound("Book not found")
			}
			return err
		}
		if isBorrowed {
			return ErrConflict("Book has an active loan")
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM books WHERE book_id = ?`, bookID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			return ErrInternal("failed to delete book")
		}
		return nil
	})
}

// buildListWhere renders the filter once so the page query and the count
// query cannot drift apart.
func buildListWhere(f BookFilter) (string, []any) {
	sb := strings.Builder{}
	args := []any{}
	sb.WriteString(` WHERE 1=1`)
	if f.Search != "" {
		sb.WriteString(` AND (title LIKE ? OR author LIKE ?)`)
		p := likePattern(f.Search)
		args = append(args, p, p)
	}
	if f.Author != "" {
		sb.WriteString(` AND author LIKE ?`)
		args = append(args, likePattern(f.Author))
	}
	if f.IsBorrowed != nil {
		sb.WriteString(` AND is_borrowed = ?`)
		args = append(args, *f.IsBorrowed)
	}
	return sb.String(), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func (s *Store) List(ctx context.Context, q ListQuery) ([]Book, int64, error) {
	where, args := buildListWhere(q.Filter)

	col, ok := q.SortBy.column()
	if !ok {
		return nil, 0, ErrInvalid("invalid sort field")
	}
	dir := "ASC"
	if q.SortDesc {
		dir = "DESC"
	}

	sb := strings.Builder{}
	sb.WriteString(`
	SELECT book_id, book_ulid, title, author, is_borrowed, created_at
	FROM books`)
	sb.WriteString(where)
	// book_id as tie breaker keeps pages stable
	sb.WriteString(fmt.Sprintf(` ORDER BY %s %s, book_id ASC`, col, dir))
	sb.WriteString(` LIMIT ? OFFSET ?`)
	pageArgs := append(append([]any{}, args...), q.PerPage, (q.Page-1)*q.PerPage)

	rows, err := s.db.QueryContext(ctx, sb.String(), pageArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Book
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.BookID, &b.BookULID, &b.Title, &b.Author, &b.IsBorrowed, &b.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return out, total, nil
}
