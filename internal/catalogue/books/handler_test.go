package books

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter() (*gin.Engine, *fakeBookStore) {
	gin.SetMode(gin.TestMode)
	store := newFakeBookStore()
	r := gin.New()
	RegisterRoutes(r, &Service{store: store})
	return r, store
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateBookHandler(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/books", CreateBookRequest{Title: "Dune", Author: "Herbert"})
	require.Equal(t, http.StatusCreated, w.Code)

	res := decode[BookResponse](t, w)
	assert.Equal(t, "Dune", res.Title)
	assert.False(t, res.IsBorrowed)
	assert.Equal(t, "/books/"+res.ID, w.Header().Get("Location"))
}

func TestCreateBookHandler_MissingFields(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(t, r, http.MethodPost, "/books", map[string]string{"title": "Dune"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	res := decode[errorDTO](t, w)
	assert.Equal(t, CodeInvalidArgument, res.Error.Code)
}

func TestGetBookHandler_NotFound(t *testing.T) {
	r, _ := newTestRouter()

	w := doJSON(t, r, http.MethodGet, "/books/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateBookHandler(t *testing.T) {
	r, _ := newTestRouter()

	created := decode[BookResponse](t, doJSON(t, r, http.MethodPost, "/books",
		CreateBookRequest{Title: "Dune", Author: "Herbert"}))

	w := doJSON(t, r, http.MethodPut, "/books/"+created.ID, map[string]string{"title": "Dune Messiah"})
	require.Equal(t, http.StatusOK, w.Code)

	res := decode[BookResponse](t, w)
	assert.Equal(t, "Dune Messiah", res.Title)
	assert.Equal(t, "Herbert", res.Author)
}

func TestDeleteBookHandler(t *testing.T) {
	r, _ := newTestRouter()

	created := decode[BookResponse](t, doJSON(t, r, http.MethodPost, "/books",
		CreateBookRequest{Title: "Dune", Author: "Herbert"}))

	w := doJSON(t, r, http.MethodDelete, "/books/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/books/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/books/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBooksHandler(t *testing.T) {
	r, _ := newTestRouter()
	for _, title := range []string{"B", "A", "C"} {
		doJSON(t, r, http.MethodPost, "/books", CreateBookRequest{Title: title, Author: "Someone"})
	}

	w := doJSON(t, r, http.MethodGet, "/books", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))

	res := decode[BookListResponse](t, w)
	require.Len(t, res.Books, 3)
	assert.Equal(t, "A", res.Books[0].Title)
	assert.Equal(t, 1, res.Pagination.Page)
	assert.Equal(t, 10, res.Pagination.PerPage)
	assert.Equal(t, int64(3), res.Pagination.TotalItems)

	w = doJSON(t, r, http.MethodGet, "/books?sort_order=desc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[BookListResponse](t, w)
	assert.Equal(t, "C", res.Books[0].Title)
}

func TestListBooksHandler_BadParams(t *testing.T) {
	r, _ := newTestRouter()

	for _, path := range []string{
		"/books?per_page=0",
		"/books?per_page=101",
		"/books?page=0",
		"/books?sort_by=isbn",
	} {
		w := doJSON(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	w := doJSON(t, r, http.MethodGet, "/books?per_page=100", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
