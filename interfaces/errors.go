package interfaces

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"resume-screener/domain"
)

// respondError maps a service error onto a status code and a gin.H body.
// Upstream and internal failures are logged and reported without details.
func respondError(c *gin.Context, log *logrus.Logger, err error) {
	var (
		validation *domain.ValidationError
		upstream   *domain.UpstreamError
		bindErrs   validator.ValidationErrors
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Message, "fields": validation.Fields})
	case errors.As(err, &bindErrs):
		fields := make([]string, 0, len(bindErrs))
		for _, fe := range bindErrs {
			fields = append(fields, fe.Field())
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid fields: " + strings.Join(fields, ", "), "fields": fields})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.As(err, &upstream):
		log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("scoring provider failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "analysis failed"})
	case errors.Is(err, domain.ErrConfiguration):
		log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("service misconfigured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "service is not configured for this request"})
	default:
		log.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}
