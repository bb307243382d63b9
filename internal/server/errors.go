package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	assemblydomain "github.com/c3s/memberadmin/internal/assembly/domain"
	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware turns errors attached to the gin context into
// a JSON error response with the mapped status code. Handlers report
// errors through AbortWithError and never write error bodies directly.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var notApplicable *duesdomain.NotApplicableError
	if errors.As(err, &notApplicable) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "dues_not_applicable",
			Message: notApplicable.Reason,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isPreconditionError(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "precondition_failed",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, memberdomain.ErrInvalidMemberID),
		errors.Is(err, memberdomain.ErrInvalidEmail),
		errors.Is(err, memberdomain.ErrInvalidPayment),
		errors.Is(err, memberdomain.ErrMissingMembership),
		errors.Is(err, duesdomain.ErrInvalidMemberID),
		errors.Is(err, duesdomain.ErrReductionNegative),
		errors.Is(err, duesdomain.ErrReductionNotConfirmed),
		errors.Is(err, duesdomain.ErrAlreadyDefaultAmount),
		errors.Is(err, duesdomain.ErrAlreadyReducedToAmount),
		errors.Is(err, duesdomain.ErrReductionUpward),
		errors.Is(err, assemblydomain.ErrInvalidAssemblyID),
		errors.Is(err, assemblydomain.ErrNameRequired),
		errors.Is(err, assemblydomain.ErrContentIncomplete),
		errors.Is(err, assemblydomain.ErrAssemblyInPast):
		return true
	default:
		return false
	}
}

func isPreconditionError(err error) bool {
	switch {
	case errors.Is(err, duesdomain.ErrNoInvoiceForYear),
		errors.Is(err, memberdomain.ErrNoInvoiceForYear),
		errors.Is(err, assemblydomain.ErrMembershipNotCovered):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, memberdomain.ErrAlreadyAccepted),
		errors.Is(err, memberdomain.ErrDeleteAccepted),
		errors.Is(err, assemblydomain.ErrAlreadyInvited):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, memberdomain.ErrNotFound),
		errors.Is(err, duesdomain.ErrMemberNotFound),
		errors.Is(err, duesdomain.ErrInvoiceNotFound),
		errors.Is(err, assemblydomain.ErrAssemblyNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog buckets errors for the request log fields.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	status, payload := mapError(err)
	switch {
	case status >= http.StatusInternalServerError:
		return "internal", payload.Type
	case status >= http.StatusBadRequest:
		return "client", payload.Type
	default:
		return "", ""
	}
}
