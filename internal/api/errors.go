package api

import (
	"errors"                        // Error inspection
	"fmt"                           // Message formatting
	"net/http"                      // HTTP status codes
	"strings"                       // Message joining
	"wallet_ledger/internal/domain" // Domain errors

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/go-playground/validator/v10" // Binding validation errors
	"github.com/sirupsen/logrus"             // Logging library
)

// respondError writes err as {"detail": ...}. Unknown errors become a generic 500 and are logged.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		c.AbortWithStatusJSON(appErr.Status, gin.H{"detail": appErr.Detail})
		return
	}
	_ = c.Error(err) // Attach for the request logger
	log.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).WithError(err).Error("Unhandled error")
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Internal server error"})
}

// bindError converts a gin binding failure into a 422 with field-level messages
func bindError(err error) *domain.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Validation("Invalid request body")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return domain.Validation(strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
