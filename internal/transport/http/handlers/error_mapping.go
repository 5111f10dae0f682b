package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hongquyngo/authority-management-system/internal/usecase"
)

// ErrorCase pairs a sentinel error with the status and message a handler
// returns when its use case fails with that error.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError writes the response for the first case matching err
// by errors.Is, or the fallback when none does. A nil err writes 200 with no
// body.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	if err == nil {
		c.Status(http.StatusOK)
		return
	}

	status, message := fallbackStatus, fallbackMessage
	for _, cs := range cases {
		if cs.Err != nil && errors.Is(err, cs.Err) {
			status, message = cs.Status, cs.Message
			break
		}
	}

	c.JSON(status, NewErrorResponse(c, message))
}

// respondValidationError reports a rejected submission with its full ordered
// violation list. Returns false when err is not a validation failure so the
// caller can continue mapping.
func respondValidationError(c *gin.Context, err error) bool {
	var validationErr *usecase.ValidationError
	if !errors.As(err, &validationErr) {
		return false
	}

	c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{
		Success: false,
		Errors:  validationErr.Violations,
	})
	return true
}
