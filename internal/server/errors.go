package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	commissiondomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/commission/domain"
	invoicedomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/invoice/domain"
	orderdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/order/domain"
	tenantdomain "github.com/syedarifiqbal/digitizing-workflow-sub000/internal/tenant/domain"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/internal/workflow"
	"github.com/syedarifiqbal/digitizing-workflow-sub000/pkg/db"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not_found")
)

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

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	var vErrs *ValidationErrors
	if errors.As(err, &vErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErrs.Errors,
		}
	}

	var transitionErr *workflow.IllegalTransitionError
	if errors.As(err, &transitionErr) {
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "illegal_transition",
			Message: transitionErr.Error(),
		}
	}

	switch {
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		db.IsNotFoundErr(err),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrOrderNotFound),
		errors.Is(err, commissiondomain.ErrNotFound),
		errors.Is(err, tenantdomain.ErrNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrAlreadyInvoiced),
		errors.Is(err, invoicedomain.ErrOrderInvoiced),
		errors.Is(err, commissiondomain.ErrRuleExists),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return true
	default:
		return false
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrInvalidRequest),
		errors.Is(err, orderdomain.ErrMissingAssignee),
		errors.Is(err, invoicedomain.ErrInvalidRequest),
		errors.Is(err, invoicedomain.ErrInvalidPayment),
		errors.Is(err, invoicedomain.ErrCurrencyMixed),
		errors.Is(err, invoicedomain.ErrNothingToInvoice),
		errors.Is(err, commissiondomain.ErrInvalidRule),
		errors.Is(err, tenantdomain.ErrInvalidName),
		errors.Is(err, tenantdomain.ErrInvalidSlug),
		errors.Is(err, tenantdomain.ErrInvalidValue):
		return true
	default:
		return false
	}
}
