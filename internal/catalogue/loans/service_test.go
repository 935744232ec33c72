package loans

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLoanStore implements LoanStore in memory, tracking book availability
// the way the SQL store does inside its transactions.
type fakeBookState struct {
	title    string
	borrowed bool
}

type fakeLoanStore struct {
	seq   int64
	books map[string]*fakeBookState
	loans map[string]*Loan
}

func newFakeLoanStore() *fakeLoanStore {
	return &fakeLoanStore{
		books: map[string]*fakeBookState{},
		loans: map[string]*Loan{},
	}
}

func (f *fakeLoanStore) addBook(ulid, title string) {
	f.books[ulid] = &fakeBookState{title: title}
}

func (f *fakeLoanStore) ExecBorrow(_ context.Context, loan *Loan, bookULID string) error {
	b, ok := f.books[bookULID]
	if !ok {
		return ErrNotFound("Book not found")
	}
	if b.borrowed {
		return ErrConflict("Book already borrowed")
	}

	f.seq++
	loan.LoanID = f.seq
	loan.BookID = f.seq
	loan.BookULID = sql.NullString{String: bookULID, Valid: true}
	b.borrowed = true

	cp := *loan
	f.loans[loan.LoanULID] = &cp
	return nil
}

func (f *fakeLoanStore) ExecReturn(_ context.Context, loanULID string, now time.Time) (string, error) {
	l, ok := f.loans[loanULID]
	if !ok || l.ReturnedAt.Valid {
		return "", ErrNotFound("Loan not found")
	}
	l.ReturnedAt = sql.NullTime{Time: now, Valid: true}

	b, ok := f.books[l.BookULID.String]
	if !ok {
		return "", nil
	}
	b.borrowed = false
	return b.title, nil
}

func (f *fakeLoanStore) ListLoans(_ context.Context, includeReturned bool) ([]Loan, error) {
	var out []Loan
	for _, l := range f.loans {
		if !includeReturned && l.ReturnedAt.Valid {
			continue
		}
		out = append(out, *l)
	}
	return out, nil
}

// deterministic seams

type stubClock struct{ t time.Time }

func (c stubClock) Now() time.Time { return c.t }

type seqIDGen struct{ n int }

func (g *seqIDGen) New() (string, error) {
	g.n++
	return fmt.Sprintf("01TESTLOAN%016d", g.n), nil
}

func newTestService() (*Service, *fakeLoanStore) {
	store := newFakeLoanStore()
	svc := &Service{
		store: store,
		clock: stubClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)},
		id:    &seqIDGen{},
	}
	return svc, store
}

func assertCode(t *testing.T, err error, code Code) {
	t.Helper()
	require.Error(t, err)
	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, code, api.Code)
}

func TestBorrow_Validation(t *testing.T) {
	svc, _ := newTestService()

	for _, tc := range []BorrowRequest{
		{BookID: "", BorrowerName: "Alice"},
		{BookID: "book-1", BorrowerName: ""},
		{BookID: " ", BorrowerName: "Alice"},
	} {
		_, err := svc.Borrow(context.Background(), tc)
		assertCode(t, err, CodeInvalidArgument)
	}
}

func TestBorrow_BookNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Borrow(context.Background(), BorrowRequest{BookID: "missing", BorrowerName: "Alice"})
	assertCode(t, err, CodeNotFound)
}

func TestBorrow_Success(t *testing.T) {
	svc, store := newTestService()
	store.addBook("book-1", "Dune")

	res, err := svc.Borrow(context.Background(), BorrowRequest{BookID: "book-1", BorrowerName: "Alice"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.ID)
	require.NotNil(t, res.BookID)
	assert.Equal(t, "book-1", *res.BookID)
	assert.Equal(t, "Alice", res.BorrowerName)
	assert.Nil(t, res.ReturnedAt)
	assert.True(t, store.books["book-1"].borrowed)
}

func TestBorrow_AlreadyBorrowed(t *testing.T) {
	svc, store := newTestService()
	store.addBook("book-1", "Dune")

	_, err := svc.Borrow(context.Background(), BorrowRequest{BookID: "book-1", BorrowerName: "Alice"})
	require.NoError(t, err)

	// a different borrower makes no difference
	_, err = svc.Borrow(context.Background(), BorrowRequest{BookID: "book-1", BorrowerName: "Bob"})
	assertCode(t, err, CodeConflict)
}

func TestReturn_RoundTrip(t *testing.T) {
	svc, store := newTestService()
	store.addBook("book-1", "Dune")

	res, err := svc.Borrow(context.Background(), BorrowRequest{BookID: "book-1", BorrowerName: "Alice"})
	require.NoError(t, err)

	title, err := svc.Return(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", title)
	assert.False(t, store.books["book-1"].borrowed, "return frees the book")

	// the book can be borrowed again afterwards
	_, err = svc.Borrow(context.Background(), BorrowRequest{BookID: "book-1", BorrowerName: "Bob"})
	assert.NoError(t, err)
}

func TestReturn_SecondReturnNotFound(t *testing.T) {
	svc, store := newTestService()
	store.addBook("book-1", "Dune")

	res, err := svc.Borrow(context.Background(), BorrowRequest{BookID: "book-1", BorrowerName: "Alice"})
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), res.ID)
	require.NoError(t, err)

	// borrow again, then replay the first return: it must not free the book
	res2, err := svc.Borrow(context.Background(), BorrowRequest{BookID: "book-1", BorrowerName: "Bob"})
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), res.ID)
	assertCode(t, err, CodeNotFound)
	assert.True(t, store.books["book-1"].borrowed, "replayed return must not clear availability")

	_, err = svc.Return(context.Background(), res2.ID)
	assert.NoError(t, err)
}

func TestReturn_UnknownLoan(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Return(context.Background(), "no-such-loan")
	assertCode(t, err, CodeNotFound)
}

func TestList_ActiveVsHistory(t *testing.T) {
	svc, store := newTestService()
	store.addBook("book-1", "Dune")
	store.addBook("book-2", "Foundation")

	first, err := svc.Borrow(context.Background(), BorrowRequest{BookID: "book-1", BorrowerName: "Alice"})
	require.NoError(t, err)
	_, err = svc.Borrow(context.Background(), BorrowRequest{BookID: "book-2", BorrowerName: "Bob"})
	require.NoError(t, err)

	_, err = svc.Return(context.Background(), first.ID)
	require.NoError(t, err)

	active, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Bob", active[0].BorrowerName)

	all, err := svc.List(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
