package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/ticketsplit-backend/internal/api/dto"
)

// Base provides shared functionality for all handlers.
type Base struct {
	logger *slog.Logger
}

// NewBase creates a new base handler with the given logger.
func NewBase(logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// WriteError writes an error response with the given status code and stops
// the handler chain.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.AbortWithStatusJSON(status, err)
}
