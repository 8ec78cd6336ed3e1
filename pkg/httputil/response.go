package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/medwatch/triage-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a 201 with the created resource
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError maps an application error onto the wire. InvalidTransition
// is a conflict, not a server fault.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := int(apperrors.ErrInternal)
	msg := err.Error()

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		code = int(appErr.Code)
		switch appErr.Code {
		case apperrors.ErrNotFound:
			status = http.StatusNotFound
		case apperrors.ErrBadRequest, apperrors.ErrClassification:
			status = http.StatusBadRequest
		case apperrors.ErrUnauthorized:
			status = http.StatusUnauthorized
		case apperrors.ErrInvalidTransition:
			status = http.StatusConflict
		case apperrors.ErrStoreUnavailable:
			status = http.StatusServiceUnavailable
		}
		msg = appErr.Message
	}

	c.JSON(status, Response{
		Success: false,
		Error:   &Error{Code: code, Message: msg},
	})
}
