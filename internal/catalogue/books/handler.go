package books

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/books", h.List)
	r.GET("/books/:book_id", h.Get)
	r.POST("/books", h.Create)
	r.PUT("/books/:book_id", h.Update)
	r.DELETE("/books/:book_id", h.Delete)
}

// List godoc
//
//	@Summary	List books with search, filtering, sorting and pagination
//	@Tags		books
//	@Security	BearerAuth
//	@Produce	json
//	@Param		page		query		int		false	"Page number (1-based)"	default(1)
//	@Param		per_page	query		int		false	"Items per page (1-100)"	default(10)
//	@Param		search		query		string	false	"Substring match on title or author"
//	@Param		author		query		string	false	"Filter by author"
//	@Param		is_borrowed	query		bool	false	"Filter by borrowed status"
//	@Param		sort_by		query		string	false	"Sort field"	Enums(title, author, id, created_at)	default(title)
//	@Param		sort_order	query		string	false	"Sort order"	Enums(asc, desc)	default(asc)
//	@Success	200			{object}	BookListResponse
//	@Failure	400			{object}	errorDTO
//	@Router		/books [get]
func (h *Handler) List(c *gin.Context) {
	q := ListQuery{
		Page:     atoiDef(c.Query("page"), 1),
		PerPage:  atoiDef(c.Query("per_page"), defaultPerPage),
		SortBy:   SortField(c.DefaultQuery("sort_by", string(SortByTitle))),
		SortDesc: strings.EqualFold(c.DefaultQuery("sort_order", "asc"), "desc"),
	}
	q.Filter.Search = c.Query("search")
	q.Filter.Author = c.Query("author")
	if v := c.Query("is_borrowed"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			q.Filter.IsBorrowed = &b
		}
	}

	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	// listing is read-only; let clients cache it briefly
	c.Header("Cache-Control", "public, max-age=60")
	c.JSON(http.StatusOK, res)
}

// Get godoc
//
//	@Summary	Get a single book by ID
//	@Tags		books
//	@Security	BearerAuth
//	@Produce	json
//	@Param		book_id	path		string	true	"Book ID"
//	@Success	200		{object}	BookResponse
//	@Failure	404		{object}	errorDTO
//	@Router		/books/{book_id} [get]
func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.Get(c.Request.Context(), c.Param("book_id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Create godoc
//
//	@Summary	Add a new book
//	@Tags		books
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateBookRequest	true	"book"
//	@Success	201		{object}	BookResponse
//	@Failure	400		{object}	errorDTO
//	@Router		/books [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Header("Location", "/books/"+res.ID)
	c.JSON(http.StatusCreated, res)
}

// Update godoc
//
//	@Summary	Update a book by ID
//	@Tags		books
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		book_id	path		string				true	"Book ID"
//	@Param		body	body		UpdateBookRequest	true	"fields to update"
//	@Success	200		{object}	BookResponse
//	@Failure	404		{object}	errorDTO
//	@Router		/books/{book_id} [put]
func (h *Handler) Update(c *gin.Context) {
	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), c.Param("book_id"), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete godoc
//
//	@Summary	Delete a book by ID
//	@Tags		books
//	@Security	BearerAuth
//	@Produce	json
//	@Param		book_id	path		string	true	"Book ID"
//	@Success	200		{object}	map[string]string
//	@Failure	404		{object}	errorDTO
//	@Router		/books/{book_id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("book_id")); err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Book deleted"})
}

// ---------- helpers ----------

func atoiDef(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func apiErr(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func apiErrFrom(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = err.Error()
	}
	return apiErr(code, msg)
}
