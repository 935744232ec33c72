package loans

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.GET("/loans", h.List)
	r.POST("/loans", h.Borrow)
	r.DELETE("/loans/:loan_id", h.Return)
}

// List godoc
//
//	@Summary	List loan records
//	@Tags		loans
//	@Security	BearerAuth
//	@Produce	json
//	@Param		include_returned	query		bool	false	"Also include returned loans"
//	@Success	200					{array}		LoanResponse
//	@Router		/loans [get]
func (h *Handler) List(c *gin.Context) {
	includeReturned := false
	if v := c.Query("include_returned"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			includeReturned = b
		}
	}

	res, err := h.svc.List(c.Request.Context(), includeReturned)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// Borrow godoc
//
//	@Summary	Borrow a book (create a loan)
//	@Tags		loans
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		BorrowRequest	true	"loan"
//	@Success	201		{object}	LoanResponse
//	@Failure	400		{object}	errorDTO
//	@Failure	404		{object}	errorDTO
//	@Router		/loans [post]
func (h *Handler) Borrow(c *gin.Context) {
	var req BorrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "book_id and borrower_name are required"))
		return
	}

	res, err := h.svc.Borrow(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/loans/"+res.ID)
	c.JSON(http.StatusCreated, res)
}

// Return godoc
//
//	@Summary	Return a borrowed book (close the loan)
//	@Tags		loans
//	@Security	BearerAuth
//	@Produce	json
//	@Param		loan_id	path		string	true	"Loan ID"
//	@Success	200		{object}	map[string]string
//	@Failure	404		{object}	errorDTO
//	@Router		/loans/{loan_id} [delete]
func (h *Handler) Return(c *gin.Context) {
	title, err := h.svc.Return(c.Request.Context(), c.Param("loan_id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}

	msg := "Book returned successfully"
	if title != "" {
		msg = fmt.Sprintf("Book '%s' returned successfully", title)
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// ---------- helpers ----------

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = err.Error()
	}
	return errorBody(code, msg)
}
