package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cycleroute/internal/repository"
)

// respondError maps repository errors to HTTP statuses. Unexpected errors
// are logged with the operation name and hidden from the client.
func respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logrus.WithError(err).Errorf("%s: unexpected error", op)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
