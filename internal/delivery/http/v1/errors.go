package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

var errInvalidRequestBody = errors.New("invalid request body")

type apiError struct {
	Code    int    `json:"-"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

// abort writes the {message, error?} body. The diagnostic detail is
// stripped in prod.
func (h *handlerImpl) abort(c *gin.Context, err apiError) {
	if h.prod {
		err.Detail = ""
	}
	c.AbortWithStatusJSON(err.Code, err)
}

func newServerError(err error) apiError {
	e := newAPIError(http.StatusInternalServerError, "Server error")
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}
