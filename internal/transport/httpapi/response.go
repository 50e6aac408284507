package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vladislavdragonenkov/rms/internal/domain"
)

// apiError — тело ошибки в конверте {"ok": false, "error": {...}}.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"ok": true, "data": data})
}

func respondNoContent(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": nil})
}

// respondError переводит доменную ошибку в HTTP-статус и код.
func respondError(c *gin.Context, err error) {
	status, code := classify(err)
	message := strings.ReplaceAll(err.Error(), "\n", "; ")
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": apiError{Code: code, Message: message}})
}

// classify: порядок важен, ErrStoreClosed и конфликты проверяются раньше общих видов.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrStoreClosed):
		return http.StatusConflict, "store_closed"
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrBusinessRule):
		return http.StatusUnprocessableEntity, "business_rule_violation"
	case errors.Is(err, domain.ErrOrderVersionConflict):
		return http.StatusConflict, "version_conflict"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrPaymentGateway):
		return http.StatusBadGateway, "payment_gateway_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// errBadBody — тело запроса не разобрано как JSON.
func errBadBody(err error) error {
	return errors.Join(domain.ErrValidation, err)
}
