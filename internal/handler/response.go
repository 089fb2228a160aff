package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError writes an error response, mapping application error codes to
// HTTP statuses and preserving structured details such as slot conflicts.
func RespondError(c *gin.Context, err error) {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		c.JSON(appErr.StatusCode(), &Response{
			Status:  "error",
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error()))
}

// IdentityFromContext returns the caller identity set by the auth middleware.
func IdentityFromContext(c *gin.Context) *model.Identity {
	if v, ok := c.Get("identity"); ok {
		if ident, ok := v.(*model.Identity); ok {
			return ident
		}
	}
	return nil
}
