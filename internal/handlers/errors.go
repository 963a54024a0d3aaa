package handlers

import (
	"net/http"

	"github.com/asucbc/cbc-api/internal/models"
	"github.com/gin-gonic/gin"
)

// attachError records err on the context for the request log. Client bodies
// only ever carry the public message.
func attachError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err) //nolint:errcheck // returns *gin.Error, nothing to check
}

// respondError writes status with a models.ErrorResponse body
func respondError(c *gin.Context, status int, message string, err error) {
	attachError(c, err)
	c.JSON(status, models.ErrorResponse{Error: message})
}

// respondErrorWithDetails is respondError plus per-field details
func respondErrorWithDetails(c *gin.Context, status int, message string, details any, err error) { //nolint:unparam
	attachError(c, err)
	c.JSON(status, models.ErrorResponse{Error: message, Details: details})
}

// respondInternalError hides err behind the generic 500 message
func respondInternalError(c *gin.Context, err error) {
	respondError(c, http.StatusInternalServerError, models.MsgInternalServerError, err)
}
